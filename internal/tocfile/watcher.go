package tocfile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher fires a callback when a watched TOC file is rewritten by an
// external editor or a post-processing hook. Events are debounced per
// path: editors that save with a truncate-then-write pair, or hooks
// that rewrite line by line, produce one callback, not a burst.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(path string)
	log      *slog.Logger

	watchedPaths map[string]bool

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher watches the directories containing each of the given TOC
// files. onChange receives the cleaned path of the file that settled.
func NewWatcher(paths []string, debounce time.Duration, onChange func(path string), log *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		timers:   make(map[string]*time.Timer),
	}

	// Watch directories, not files: most editors replace the file on
	// save, which would drop a file-level watch.
	dirs := make(map[string]bool)
	watched := make(map[string]bool)
	for _, p := range paths {
		clean := filepath.Clean(p)
		watched[clean] = true
		dirs[filepath.Dir(clean)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.watchedPaths = watched
	return w, nil
}

// Run dispatches events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(event.Name)
			if !w.watchedPaths[path] {
				continue
			}
			w.schedule(path)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warn("watch error", "error", err)
			}
		}
	}
}

// Close stops watching. Pending debounce timers are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.onChange(path)
	})
}
