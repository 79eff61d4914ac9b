package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notchd/internal/dbus"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo maps to low urgency.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning maps to normal urgency.
	NotificationLevelWarning
	// NotificationLevelError maps to critical urgency.
	NotificationLevelError
)

func (l NotificationLevel) urgency() byte {
	switch l {
	case NotificationLevelInfo:
		return dbus.UrgencyLow
	case NotificationLevelError:
		return dbus.UrgencyCritical
	default:
		return dbus.UrgencyNormal
	}
}

func (l NotificationLevel) icon() string {
	switch l {
	case NotificationLevelInfo:
		return "dialog-information"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// SendFunc delivers a notification and returns its server ID.
type SendFunc func(*dbus.Notification) uint32

// InternalNotifier tells the user about notchd's own problems, such as a
// config file that no longer validates. Repeats of the same key within
// the minimum interval are dropped.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time

	send        SendFunc
	lastNotify  map[string]time.Time
	minInterval time.Duration
	enabled     bool
}

// NewInternalNotifier creates a notifier. It sends nothing until a send
// function is set.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:      logger,
		now:         time.Now,
		lastNotify:  make(map[string]time.Time),
		minInterval: 5 * time.Second,
		enabled:     true,
	}
}

// SetSendFunc sets the delivery function, usually DesktopNotifier.Send.
func (n *InternalNotifier) SetSendFunc(fn SendFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = fn
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications sharing
// a key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless one with the same key went out
// recently. It reports whether the notification was sent.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return false
	}
	if n.send == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no sender", "summary", summary)
		return false
	}
	now := n.now()
	if last, ok := n.lastNotify[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return false
	}
	n.lastNotify[key] = now
	send := n.send
	n.mu.Unlock()

	notification := &dbus.Notification{
		AppName: "notchd",
		AppIcon: level.icon(),
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(level.urgency()),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant("notchd"),
		},
		ExpireTimeout: 5000,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	send(notification)
	return true
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration Reloaded",
		"notchd configuration has been reloaded.", NotificationLevelInfo)
}

// NotifyConfigError reports a config file that failed to load.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration Error",
		"Keeping the previous configuration: "+err.Error(), NotificationLevelWarning)
}

// NotifyThemeError reports a theme that failed to load.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify("theme-error", "Theme Error",
		"Failed to load theme: "+err.Error(), NotificationLevelWarning)
}

// NotifyMonitorError reports a signal source that could not start.
func (n *InternalNotifier) NotifyMonitorError(name string, err error) {
	n.Notify("monitor-"+name, "Signal Source Unavailable",
		"The "+name+" monitor could not start: "+err.Error(), NotificationLevelWarning)
}
