package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the watcher waits after the last event before
// reporting a change. A temp-file-and-rename save produces several events.
const DefaultSettle = 50 * time.Millisecond

// FileWatcher reports changes to a single file. The parent directory is
// watched so replacing the file by rename is seen.
type FileWatcher struct {
	filePath string
	onChange func()
	settle   time.Duration
	logger   *slog.Logger

	fs *fsnotify.Watcher

	mu      sync.Mutex
	pending *time.Timer
	done    chan struct{}
	running bool
}

// NewFileWatcher creates a watcher for filePath. onChange runs on a timer
// goroutine, at most once per burst of events.
func NewFileWatcher(filePath string, onChange func(), logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		filePath: filePath,
		onChange: onChange,
		settle:   DefaultSettle,
		logger:   logger,
		fs:       fs,
		done:     make(chan struct{}),
	}, nil
}

// Start creates the parent directory if needed and begins watching.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.running {
		return nil
	}

	dir := filepath.Dir(fw.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	if err := fw.fs.Add(dir); err != nil {
		return err
	}
	fw.running = true

	go fw.loop(filepath.Base(fw.filePath))
	fw.logger.Debug("watching file", "path", fw.filePath)
	return nil
}

func (fw *FileWatcher) loop(name string) {
	for {
		select {
		case event, ok := <-fw.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				fw.schedule()
			}

		case err, ok := <-fw.fs.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "path", fw.filePath, "error", err)

		case <-fw.done:
			return
		}
	}
}

// schedule restarts the settle timer.
func (fw *FileWatcher) schedule() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.running {
		return
	}
	if fw.pending != nil {
		fw.pending.Stop()
	}
	fw.pending = time.AfterFunc(fw.settle, fw.fire)
}

func (fw *FileWatcher) fire() {
	fw.mu.Lock()
	running := fw.running
	fw.pending = nil
	fw.mu.Unlock()

	if !running || fw.onChange == nil {
		return
	}
	fw.logger.Debug("watched file changed", "path", fw.filePath)
	fw.onChange()
}

// Stop stops watching. Pending notifications are dropped.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.running {
		return nil
	}
	fw.running = false
	if fw.pending != nil {
		fw.pending.Stop()
		fw.pending = nil
	}
	close(fw.done)
	return fw.fs.Close()
}
