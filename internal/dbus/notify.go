package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsBusName   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
)

// DesktopNotifier sends notifications to whatever notification daemon owns
// org.freedesktop.Notifications.
type DesktopNotifier struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewDesktopNotifier connects to the session bus.
func NewDesktopNotifier(logger *slog.Logger) (*DesktopNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DesktopNotifier{conn: conn, logger: logger}, nil
}

// Send delivers n and returns the server-assigned ID, or 0 on failure.
func (d *DesktopNotifier) Send(n *Notification) uint32 {
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}

	obj := d.conn.Object(notificationsBusName, notificationsPath)
	var id uint32
	err := obj.Call(notificationsInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body,
		actions, hints, n.ExpireTimeout,
	).Store(&id)
	if err != nil {
		d.logger.Warn("failed to send desktop notification", "summary", n.Summary, "error", err)
		return 0
	}
	return id
}
