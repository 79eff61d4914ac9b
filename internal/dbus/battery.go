package dbus

import (
	"context"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/signal"
)

const (
	upowerBusName   = "org.freedesktop.UPower"
	upowerDevice    = "org.freedesktop.UPower.Device"
	upowerDisplayID = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
)

// UPower device states.
const (
	batteryUnknown          uint32 = 0
	batteryCharging         uint32 = 1
	batteryDischarging      uint32 = 2
	batteryEmpty            uint32 = 3
	batteryFullyCharged     uint32 = 4
	batteryPendingCharge    uint32 = 5
	batteryPendingDischarge uint32 = 6
)

// lowBatteryLevels are the percentages that raise an overlay when crossed
// downwards while discharging.
var lowBatteryLevels = []float64{20, 10, 5}

// batteryTracker turns UPower property changes into signals. Plugging in or
// unplugging the charger and crossing a low level emit.
type batteryTracker struct {
	state      uint32
	percentage float64
	known      bool
}

func onExternalPower(state uint32) bool {
	switch state {
	case batteryCharging, batteryFullyCharged, batteryPendingCharge:
		return true
	}
	return false
}

func (t *batteryTracker) seed(state uint32, percentage float64) {
	t.state = state
	t.percentage = percentage
	t.known = true
}

func (t *batteryTracker) update(changed map[string]dbus.Variant) (model.Signal, bool) {
	prevState, prevPct, known := t.state, t.percentage, t.known

	if v, ok := changed["State"]; ok {
		if s, ok := variantUint(v); ok {
			t.state = s
		}
	}
	if v, ok := changed["Percentage"]; ok {
		if p, ok := variantFloat(v); ok {
			t.percentage = p
		}
	}
	t.known = true

	sig := model.Signal{Kind: model.SignalBattery, Value: model.ClampValue(t.percentage / 100)}
	if !known {
		return sig, false
	}
	if t.state != prevState && t.state != batteryUnknown && prevState != batteryUnknown &&
		onExternalPower(t.state) != onExternalPower(prevState) {
		return sig, true
	}
	if !onExternalPower(t.state) {
		for _, level := range lowBatteryLevels {
			if prevPct > level && t.percentage <= level {
				return sig, true
			}
		}
	}
	return sig, false
}

// BatteryMonitor watches the UPower display device.
type BatteryMonitor struct {
	stopper
	logger  *slog.Logger
	tracker batteryTracker
}

// NewBatteryMonitor creates a battery monitor.
func NewBatteryMonitor(logger *slog.Logger) *BatteryMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatteryMonitor{logger: logger}
}

// Name implements signal.Monitor.
func (m *BatteryMonitor) Name() string { return "battery" }

// Start implements signal.Monitor.
func (m *BatteryMonitor) Start(ctx context.Context, emit signal.EmitFunc) error {
	w, err := watchBus(dbus.ConnectSystemBus, m.logger, []dbus.MatchOption{
		dbus.WithMatchObjectPath(upowerDisplayID),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	})
	if err != nil {
		return err
	}
	m.set(w)

	obj := w.conn.Object(upowerBusName, upowerDisplayID)
	state, errState := obj.GetProperty(upowerDevice + ".State")
	pct, errPct := obj.GetProperty(upowerDevice + ".Percentage")
	if errState == nil && errPct == nil {
		s, _ := variantUint(state)
		p, _ := variantFloat(pct)
		m.tracker.seed(s, p)
		m.logger.Debug("battery monitor started", "state", s, "percentage", p)
	} else {
		m.logger.Debug("battery state unavailable, waiting for changes", "error", errState)
	}

	w.run(ctx, func(sig *dbus.Signal) {
		iface, changed, ok := parsePropertiesChanged(sig)
		if !ok || iface != upowerDevice {
			return
		}
		if s, fire := m.tracker.update(changed); fire {
			m.logger.Debug("battery signal", "state", m.tracker.state, "percentage", m.tracker.percentage)
			emit(s)
		}
	})
	return nil
}
