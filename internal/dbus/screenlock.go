package dbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/signal"
)

const logindSession = "org.freedesktop.login1.Session"

// lockState maps a logind session signal to a lock state.
func lockState(sig *dbus.Signal) (bool, bool) {
	switch sig.Name {
	case logindSession + ".Lock":
		return true, true
	case logindSession + ".Unlock":
		return false, true
	}
	if iface, changed, ok := parsePropertiesChanged(sig); ok && iface == logindSession {
		if v, ok := changed["LockedHint"]; ok {
			return variantBool(v)
		}
	}
	return false, false
}

// ScreenLockMonitor reports logind session lock and unlock.
type ScreenLockMonitor struct {
	stopper
	logger *slog.Logger

	mu     sync.Mutex
	locked bool
}

// NewScreenLockMonitor creates a screen lock monitor.
func NewScreenLockMonitor(logger *slog.Logger) *ScreenLockMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenLockMonitor{logger: logger}
}

// Name implements signal.Monitor.
func (m *ScreenLockMonitor) Name() string { return "screenlock" }

// Start implements signal.Monitor.
func (m *ScreenLockMonitor) Start(ctx context.Context, emit signal.EmitFunc) error {
	w, err := watchBus(dbus.ConnectSystemBus, m.logger,
		[]dbus.MatchOption{
			dbus.WithMatchPathNamespace("/org/freedesktop/login1/session"),
			dbus.WithMatchInterface(logindSession),
		},
		[]dbus.MatchOption{
			dbus.WithMatchPathNamespace("/org/freedesktop/login1/session"),
			dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
			dbus.WithMatchMember("PropertiesChanged"),
			dbus.WithMatchArg(0, logindSession),
		},
	)
	if err != nil {
		return err
	}
	m.set(w)

	w.run(ctx, func(sig *dbus.Signal) {
		locked, ok := lockState(sig)
		if !ok || !m.transition(locked) {
			return
		}
		m.logger.Debug("screen lock changed", "locked", locked)
		emit(model.Signal{Kind: model.SignalScreenLock, Value: model.BoolValue(locked)})
	})

	m.logger.Debug("screen lock monitor started")
	return nil
}

// transition records the lock state and reports whether it changed. Lock
// and LockedHint both arrive for one lock, only the first counts.
func (m *ScreenLockMonitor) transition(locked bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked == locked {
		return false
	}
	m.locked = locked
	return true
}
