package dbus

import (
	"context"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/signal"
)

const (
	bluezBusName = "org.bluez"
	bluezDevice  = "org.bluez.Device1"
)

// isAudioIcon reports whether a BlueZ icon name denotes an audio device.
func isAudioIcon(icon string) bool {
	return strings.HasPrefix(icon, "audio-")
}

// accessoryConnected extracts the Connected flag from a Device1 change.
func accessoryConnected(changed map[string]dbus.Variant) (bool, bool) {
	v, ok := changed["Connected"]
	if !ok {
		return false, false
	}
	return variantBool(v)
}

// AccessoryMonitor reports paired audio devices connecting or disconnecting.
type AccessoryMonitor struct {
	stopper
	logger *slog.Logger
}

// NewAccessoryMonitor creates an accessory monitor.
func NewAccessoryMonitor(logger *slog.Logger) *AccessoryMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessoryMonitor{logger: logger}
}

// Name implements signal.Monitor.
func (m *AccessoryMonitor) Name() string { return "accessory" }

// Start implements signal.Monitor.
func (m *AccessoryMonitor) Start(ctx context.Context, emit signal.EmitFunc) error {
	w, err := watchBus(dbus.ConnectSystemBus, m.logger, []dbus.MatchOption{
		dbus.WithMatchSender(bluezBusName),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, bluezDevice),
	})
	if err != nil {
		return err
	}
	m.set(w)

	w.run(ctx, func(sig *dbus.Signal) {
		iface, changed, ok := parsePropertiesChanged(sig)
		if !ok || iface != bluezDevice {
			return
		}
		connected, ok := accessoryConnected(changed)
		if !ok {
			return
		}

		icon, err := w.conn.Object(bluezBusName, sig.Path).GetProperty(bluezDevice + ".Icon")
		if err != nil {
			m.logger.Debug("bluetooth device icon unavailable", "path", sig.Path, "error", err)
			return
		}
		name, _ := variantString(icon)
		if !isAudioIcon(name) {
			return
		}

		m.logger.Debug("audio accessory changed", "path", sig.Path, "connected", connected)
		emit(model.Signal{Kind: model.SignalAccessoryConnect, Value: model.BoolValue(connected)})
	})

	m.logger.Debug("accessory monitor started")
	return nil
}
