package model

import (
	"fmt"
	"strings"
)

// DisplayID identifies a physical display by its connector name (e.g. "eDP-1").
type DisplayID string

// Style is the presentation style a display uses.
type Style int

const (
	// StyleCutout hugs a physical camera housing and never fully hides.
	StyleCutout Style = iota
	// StylePill floats as a rounded capsule and hides when idle.
	StylePill
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StyleCutout:
		return "cutout"
	case StylePill:
		return "pill"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	switch string(text) {
	case "cutout":
		*s = StyleCutout
	case "pill":
		*s = StylePill
	default:
		return fmt.Errorf("unknown style %q", text)
	}
	return nil
}

// StylePreference is the user's per-display style choice.
type StylePreference string

const (
	StylePreferenceAuto   StylePreference = "auto"
	StylePreferenceCutout StylePreference = "cutout"
	StylePreferencePill   StylePreference = "pill"
)

// ValidStylePreferences returns all accepted preference values.
func ValidStylePreferences() []StylePreference {
	return []StylePreference{StylePreferenceAuto, StylePreferenceCutout, StylePreferencePill}
}

// ParseStylePreference validates a preference string. Empty means auto.
func ParseStylePreference(s string) (StylePreference, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StylePreferenceAuto, nil
	}
	for _, p := range ValidStylePreferences() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid style %q, must be one of: %v", s, ValidStylePreferences())
}

// Size is a width/height pair in logical pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Display describes one physical display as seen by the engine.
type Display struct {
	ID                DisplayID `json:"id" yaml:"id"`
	Name              string    `json:"name,omitempty" yaml:"name,omitempty"`
	HasPhysicalCutout bool      `json:"has_physical_cutout" yaml:"has_physical_cutout"`
	Style             Style     `json:"style" yaml:"style"`
	CutoutExtent      Size      `json:"cutout_extent" yaml:"cutout_extent"`
}
