// Package reload resets the engine when the transformation program sources
// or the configuration change on disk.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gridctl/jsproc/pkg/logging"
)

// Watcher monitors files and directories and calls onChange, debounced.
type Watcher struct {
	files    map[string]bool
	dirs     map[string]bool
	exts     map[string]bool
	onChange func() error
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for paths, each a file or a directory.
// onChange is called when a watched file changes (after debouncing).
func NewWatcher(onChange func() error, paths ...string) (*Watcher, error) {
	w := &Watcher{
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		exts:     make(map[string]bool),
		onChange: onChange,
		logger:   logging.NewDiscardLogger(),
		debounce: 300 * time.Millisecond,
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
		}
	}
	if len(w.files) == 0 && len(w.dirs) == 0 {
		return nil, fmt.Errorf("nothing to watch")
	}
	return w, nil
}

// SetLogger sets the logger for watcher events.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// SetDebounce sets the debounce duration for file changes.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// SetExtensions limits directory events to files with these extensions.
func (w *Watcher) SetExtensions(exts ...string) {
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		w.exts[e] = true
	}
}

// Watch starts watching. Blocks until ctx is cancelled.
//
// Files are watched through their parent directory: editors that save
// atomically rename a temp file over the target, and fsnotify loses track of
// a directly watched file when that happens.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	added := make(map[string]bool)
	add := func(dir string) error {
		if added[dir] {
			return nil
		}
		added[dir] = true
		return watcher.Add(dir)
	}
	for dir := range w.dirs {
		if err := add(dir); err != nil {
			return err
		}
	}
	for file := range w.files {
		if err := add(filepath.Dir(file)); err != nil {
			return err
		}
	}

	w.logger.Info("watching for changes", "paths", len(added))

	var debounceTimer *time.Timer
	var debounceChan <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.logger.Info("stopping watcher")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event) {
				continue
			}

			w.logger.Debug("file changed", "path", event.Name, "event", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceChan = debounceTimer.C

		case <-debounceChan:
			w.logger.Info("change detected, reloading")
			if err := w.onChange(); err != nil {
				w.logger.Error("reload failed", "error", err)
			}
			debounceChan = nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) matches(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)

	if w.files[name] {
		// Create covers an atomic rename over the target.
		return event.Op&(fsnotify.Write|fsnotify.Create) != 0
	}

	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if len(w.exts) > 0 && !w.exts[filepath.Ext(name)] {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
