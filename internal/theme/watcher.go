package theme

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the burst of events an editor save produces.
const debounce = 150 * time.Millisecond

// Watcher calls back when any .css file in a directory changes, which covers
// a theme and the partials it imports.
type Watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	dir      string
	onChange func()
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	done     chan struct{}
	running  bool
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, onChange func(), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, onChange: onChange, logger: logger}
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.done = make(chan struct{})
	w.running = true

	go w.loop(fw, w.done)
	w.logger.Debug("theme watcher started", "dir", w.dir)
	return nil
}

func (w *Watcher) loop(fw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".css" {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("theme watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounce, func() {
		w.logger.Debug("theme directory changed", "dir", w.dir)
		if w.onChange != nil {
			w.onChange()
		}
	})
}

// Stop ends watching. Pending callbacks are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	_ = w.watcher.Close()
	w.logger.Debug("theme watcher stopped")
}
