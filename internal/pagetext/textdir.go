package pagetext

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

var pageFileName = regexp.MustCompile(`^(\d+)\.txt$`)

// WriteDir writes pages into dir as 0001.txt, 0002.txt, ... (1-based).
// The directory is created if needed; existing page files are replaced.
// This layout is what post-processing hooks receive as DOGEAR_TEXTDIR.
func WriteDir(dir string, pages []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create text dir: %w", err)
	}
	for i, page := range pages {
		name := filepath.Join(dir, fmt.Sprintf("%04d.txt", i+1))
		if err := os.WriteFile(name, []byte(page), 0o644); err != nil {
			return fmt.Errorf("write page %d: %w", i+1, err)
		}
	}
	return nil
}

// ReadDir loads a page-text directory written by WriteDir back into an
// ordered page sequence. File NNNN.txt lands at index NNNN-1; gaps are
// filled with empty pages so page attribution survives deleted files.
// Files that do not look like page files are ignored.
func ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read text dir: %w", err)
	}

	byPage := make(map[int]string)
	maxPage := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageFileName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read page file %s: %w", entry.Name(), err)
		}
		byPage[n] = Canonicalize(string(data))
		if n > maxPage {
			maxPage = n
		}
	}

	pages := make([]string, maxPage)
	for n, text := range byPage {
		pages[n-1] = text
	}
	return pages, nil
}
