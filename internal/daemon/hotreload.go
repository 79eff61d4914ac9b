package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/notchd/internal/config"
)

// DefaultPollInterval is how often the config file's modification time is
// checked.
const DefaultPollInterval = time.Second

// ConfigWatcher polls the daemon config file and hands validated configs to
// the reload callback. An invalid file leaves the current config in place.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath   string
	lastModTime  time.Time
	current      *config.DaemonConfig
	pollInterval time.Duration

	onReload func(*config.DaemonConfig)
	onError  func(error)

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		logger:       logger,
		configPath:   path,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval sets the polling interval. It takes effect on Start.
func (w *ConfigWatcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetReloadCallback sets the function called with each valid new config.
// It runs on the watcher goroutine.
func (w *ConfigWatcher) SetReloadCallback(fn func(*config.DaemonConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// SetErrorCallback sets the function called when a changed file fails to
// load or validate.
func (w *ConfigWatcher) SetErrorCallback(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Start begins polling. initial is reported by Current until the first
// successful reload.
func (w *ConfigWatcher) Start(ctx context.Context, initial *config.DaemonConfig) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.current = initial
	if info, err := os.Stat(w.configPath); err == nil {
		w.lastModTime = info.ModTime()
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("config watcher started", "path", w.configPath, "interval", interval)
	return nil
}

// Stop stops polling and waits for the watcher goroutine to exit.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("config watcher stopped")
}

// Current returns the last valid configuration.
func (w *ConfigWatcher) Current() *config.DaemonConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *ConfigWatcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check reloads the config if the file's modification time moved forward.
func (w *ConfigWatcher) check() {
	info, err := os.Stat(w.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Debug("failed to stat config file", "path", w.configPath, "error", err)
		}
		return
	}

	w.mu.Lock()
	if !info.ModTime().After(w.lastModTime) {
		w.mu.Unlock()
		return
	}
	w.lastModTime = info.ModTime()
	onReload, onError := w.onReload, w.onError
	w.mu.Unlock()

	w.logger.Debug("config file changed", "path", w.configPath, "modTime", info.ModTime())

	cfg, err := config.LoadDaemonConfigFrom(w.configPath)
	if err != nil {
		w.logger.Warn("config file changed but failed to load", "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.configPath)
	if onReload != nil {
		onReload(cfg)
	}
}
