// Package watcher reports changes to vocabulary files under a directory tree.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a directory tree and reports changed files
type Watcher struct {
	dir      string
	match    func(path string) bool
	onChange func(path string)
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for dir. onChange is called with the absolute path of
// every created, written, removed or renamed file that match accepts.
func New(dir string, match func(path string) bool, onChange func(path string)) *Watcher {
	if match == nil {
		match = func(string) bool { return true }
	}
	return &Watcher{
		dir:      dir,
		match:    match,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		logger:   slog.Default(),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// WithLogger sets the logger
func (w *Watcher) WithLogger(l *slog.Logger) *Watcher {
	if l != nil {
		w.logger = l
	}
	return w
}

// Watch starts watching. It blocks until the context is cancelled or the
// underlying watcher fails to start.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	root, err := filepath.Abs(w.dir)
	if err != nil {
		return err
	}
	if err := w.addTree(fsw, root); err != nil {
		return err
	}

	w.logger.Info("watching vocabulary files", "dir", root)

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			path, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}

			// fsnotify is not recursive, follow new subdirectories
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if err := w.addTree(fsw, path); err != nil {
						w.logger.Warn("failed to watch directory", "dir", path, "error", err)
					}
					continue
				}
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.match(path) {
				continue
			}

			mu.Lock()
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				w.logger.Info("vocabulary file changed", "path", path)
				w.onChange(path)
			})
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fsw.Add(path)
	})
}
