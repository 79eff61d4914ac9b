package dbus

import (
	"github.com/godbus/dbus/v5"
)

// Urgency levels defined by the freedesktop.org notification specification.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Notification is an outgoing org.freedesktop.Notifications.Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Urgency returns the urgency hint, UrgencyNormal if unset.
func (n *Notification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return UrgencyNormal
}

// Transient reports whether the transient hint is set.
func (n *Notification) Transient() bool {
	b, _ := variantBool(n.Hints["transient"])
	return b
}

// The helpers below read typed values out of property and hint maps.
// A missing key or wrong type reports ok=false.

func variantString(v dbus.Variant) (string, bool) {
	switch val := v.Value().(type) {
	case string:
		return val, true
	case dbus.ObjectPath:
		return string(val), true
	}
	return "", false
}

func variantBool(v dbus.Variant) (bool, bool) {
	b, ok := v.Value().(bool)
	return b, ok
}

func variantFloat(v dbus.Variant) (float64, bool) {
	switch val := v.Value().(type) {
	case float64:
		return val, true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case byte:
		return float64(val), true
	}
	return 0, false
}

func variantUint(v dbus.Variant) (uint32, bool) {
	switch val := v.Value().(type) {
	case uint32:
		return val, true
	case int32:
		if val >= 0 {
			return uint32(val), true
		}
	case byte:
		return uint32(val), true
	}
	return 0, false
}

func variantStrings(v dbus.Variant) ([]string, bool) {
	switch val := v.Value().(type) {
	case []string:
		return val, true
	case string:
		return []string{val}, true
	}
	return nil, false
}
