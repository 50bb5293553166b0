// Package hook runs post-processing scripts against a written TOC
// file. Hooks are untrusted transforms: the caller must reload and
// revalidate the TOC after every run.
package hook

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Hook is one runnable script in the hook directory.
type Hook struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// List enumerates executable regular files in dir, sorted by name. A
// missing directory is an empty list, not an error: hooks are
// optional.
func List(dir string) ([]Hook, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read hook dir: %w", err)
	}

	var hooks []Hook
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		hooks = append(hooks, Hook{Name: entry.Name(), Path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].Name < hooks[j].Name })
	return hooks, nil
}

// Find returns the hook with the given name from dir.
func Find(dir, name string) (Hook, error) {
	hooks, err := List(dir)
	if err != nil {
		return Hook{}, err
	}
	for _, h := range hooks {
		if h.Name == name {
			return h, nil
		}
	}
	return Hook{}, fmt.Errorf("hook %q not found in %s", name, dir)
}

// RunError carries the exit failure plus the tail of stderr, which is
// usually the only clue a script author left behind.
type RunError struct {
	Hook   string
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("hook %s: %v", e.Hook, e.Err)
	}
	return fmt.Sprintf("hook %s: %v: %s", e.Hook, e.Err, e.Stderr)
}

func (e *RunError) Unwrap() error { return e.Err }

// Run executes the hook with the TOC file's directory as working
// directory and the TOC path and page-text directory exposed through
// DOGEAR_TOC and DOGEAR_TEXTDIR. The script may rewrite the TOC file
// in place; nothing else it does is trusted.
func Run(ctx context.Context, h Hook, tocPath, textDir string, timeout time.Duration) (stdout string, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	absTOC, err := filepath.Abs(tocPath)
	if err != nil {
		return "", fmt.Errorf("resolve toc path: %w", err)
	}
	absText, err := filepath.Abs(textDir)
	if err != nil {
		return "", fmt.Errorf("resolve text dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, h.Path)
	cmd.Dir = filepath.Dir(absTOC)
	cmd.Env = append(os.Environ(),
		"DOGEAR_TOC="+absTOC,
		"DOGEAR_TEXTDIR="+absText,
	)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return outBuf.String(), &RunError{
			Hook:   h.Name,
			Stderr: tail(errBuf.String(), 2048),
			Err:    err,
		}
	}
	return outBuf.String(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
