package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates decoded sounds when their files change on disk.
// Directories are watched rather than files so editors that replace a file
// by rename are still seen.
type Watcher struct {
	mu         sync.Mutex
	logger     *slog.Logger
	invalidate func(path string)

	watcher *fsnotify.Watcher
	paths   map[string]bool // Watched sound files
	dirs    map[string]bool // Directories registered with fsnotify
	done    chan struct{}
	running bool
}

// NewWatcher creates a watcher calling invalidate with the changed path.
func NewWatcher(invalidate func(path string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:     logger,
		invalidate: invalidate,
		paths:      make(map[string]bool),
		dirs:       make(map[string]bool),
	}
}

// Start creates the fsnotify watcher and begins handling events.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	w.done = make(chan struct{})
	w.running = true

	for dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Debug("failed to watch sound directory", "dir", dir, "error", err)
		}
	}

	go w.loop(ctx, fw, w.done)
	w.logger.Debug("audio watcher started")
	return nil
}

// Watch adds path to the watch list. It is safe to call before Start.
func (w *Watcher) Watch(path string) error {
	if path == "" {
		return nil
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.paths[path] = true
	if w.dirs[dir] {
		return nil
	}
	w.dirs[dir] = true
	if w.running {
		return w.watcher.Add(dir)
	}
	return nil
}

// Watching reports whether path is on the watch list.
func (w *Watcher) Watching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paths[filepath.Clean(path)]
}

// Stop ends the watch loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.done)
	fw := w.watcher
	w.mu.Unlock()

	_ = fw.Close()
	w.logger.Debug("audio watcher stopped")
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.changed(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("audio watcher error", "error", err)
		}
	}
}

func (w *Watcher) changed(name string) {
	path := filepath.Clean(name)
	if !w.Watching(path) {
		return
	}
	w.logger.Debug("sound file changed, invalidating cache", "path", path)
	if w.invalidate != nil {
		w.invalidate(path)
	}
}
