// Package model defines the core data structures shared by notchd components.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SignalKind identifies a short-lived system-status overlay.
type SignalKind int

const (
	SignalVolume SignalKind = iota
	SignalBrightness
	SignalBattery
	SignalCapsLock
	SignalFocusMode
	SignalAccessoryConnect
	SignalScreenLock
)

// signalNames maps signal kinds to their wire/config names.
var signalNames = map[SignalKind]string{
	SignalVolume:           "volume",
	SignalBrightness:       "brightness",
	SignalBattery:          "battery",
	SignalCapsLock:         "capslock",
	SignalFocusMode:        "focus",
	SignalAccessoryConnect: "accessory",
	SignalScreenLock:       "screenlock",
}

// AllSignalKinds returns every signal kind in declaration order.
func AllSignalKinds() []SignalKind {
	return []SignalKind{
		SignalVolume,
		SignalBrightness,
		SignalBattery,
		SignalCapsLock,
		SignalFocusMode,
		SignalAccessoryConnect,
		SignalScreenLock,
	}
}

// String returns the lowercase name of the kind.
func (k SignalKind) String() string {
	if name, ok := signalNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseSignalKind parses a kind name as produced by String.
func ParseSignalKind(s string) (SignalKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range signalNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown signal kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k SignalKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SignalKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSignalKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Priority returns the caller-side ordering used when several monitors fire
// in the same tick. Higher wins. Volume and brightness share the top channel.
func (k SignalKind) Priority() int {
	switch k {
	case SignalVolume, SignalBrightness:
		return 100
	case SignalBattery:
		return 50
	case SignalCapsLock:
		return 40
	case SignalFocusMode:
		return 30
	case SignalAccessoryConnect:
		return 20
	case SignalScreenLock:
		return 10
	default:
		return 0
	}
}

// Signal is a change reported by an external monitor.
type Signal struct {
	Kind     SignalKind
	Value    float64       // 0..1, booleans as 0 or 1
	Duration time.Duration // Suggested visible duration, zero = use default
	At       time.Time
}

// BoolValue converts a boolean monitor reading to a signal value.
func BoolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ClampValue limits v to the 0..1 range. NaN becomes 0.
func ClampValue(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
