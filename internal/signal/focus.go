package signal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/store"
)

// FocusMonitor reports focus mode changes made through the shared state
// file, e.g. by `notch focus toggle`.
type FocusMonitor struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	watcher *store.FileWatcher
	enabled bool
	emit    EmitFunc
	onState func(*store.SharedState)
}

// NewFocusMonitor creates a monitor for the state file at path.
func NewFocusMonitor(path string, logger *slog.Logger) *FocusMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FocusMonitor{path: path, logger: logger}
}

// SetStateCallback sets a function called with every successfully loaded
// state, including the initial one. It runs on the watcher goroutine.
func (m *FocusMonitor) SetStateCallback(fn func(*store.SharedState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// Name implements Monitor.
func (m *FocusMonitor) Name() string { return "focus" }

// Start reads the current state and starts watching. The initial state
// does not emit.
func (m *FocusMonitor) Start(ctx context.Context, emit EmitFunc) error {
	state, err := store.LoadSharedStateFrom(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.emit = emit
	m.enabled = state.FocusEnabled
	onState := m.onState
	m.mu.Unlock()
	if onState != nil {
		onState(state)
	}

	w, err := store.NewFileWatcher(m.path, m.reload, m.logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	m.mu.Lock()
	m.watcher = w
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = m.Stop()
	}()

	m.logger.Debug("focus monitor started", "path", m.path, "enabled", state.FocusEnabled)
	return nil
}

// reload re-reads the state file and emits when the focus flag flipped.
func (m *FocusMonitor) reload() {
	state, err := store.LoadSharedStateFrom(m.path)
	if err != nil {
		m.logger.Warn("failed to reload shared state", "error", err)
		return
	}

	m.mu.Lock()
	changed := state.FocusEnabled != m.enabled
	m.enabled = state.FocusEnabled
	emit := m.emit
	onState := m.onState
	m.mu.Unlock()

	if onState != nil {
		onState(state)
	}
	if changed && emit != nil {
		m.logger.Info("focus mode changed", "enabled", state.FocusEnabled)
		emit(model.Signal{Kind: model.SignalFocusMode, Value: model.BoolValue(state.FocusEnabled)})
	}
}

// Enabled returns the last observed focus mode.
func (m *FocusMonitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Stop implements Monitor.
func (m *FocusMonitor) Stop() error {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Stop()
}
