package model

import "fmt"

// Mode is the single resolved presentation a display shows.
type Mode int

const (
	ModeIdle Mode = iota
	ModeHoverPeek
	ModeDragPeek
	ModeExpanded
	ModeEphemeral
	ModeMedia
	ModeHidden
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeHoverPeek:
		return "hover-peek"
	case ModeDragPeek:
		return "drag-peek"
	case ModeExpanded:
		return "expanded"
	case ModeEphemeral:
		return "ephemeral"
	case ModeMedia:
		return "media"
	case ModeHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode parses a mode name as produced by String.
func ParseMode(s string) (Mode, error) {
	for m := ModeIdle; m <= ModeHidden; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Geometry is the target size of a presentation.
type Geometry struct {
	Width        int `json:"width" yaml:"width"`
	Height       int `json:"height" yaml:"height"`
	CornerRadius int `json:"corner_radius" yaml:"corner_radius"`
}

// Presentation is the resolver's output for one display.
// It is a projection and is never stored as authoritative state.
type Presentation struct {
	Display  DisplayID   `json:"display" yaml:"display"`
	Style    Style       `json:"style" yaml:"style"`
	Mode     Mode        `json:"mode" yaml:"mode"`
	Kind     *SignalKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Value    float64     `json:"value,omitempty" yaml:"value,omitempty"`
	Track    string      `json:"track,omitempty" yaml:"track,omitempty"`
	Geometry Geometry    `json:"geometry" yaml:"geometry"`
}

// Label returns a compact description such as "ephemeral(battery)".
func (p Presentation) Label() string {
	if p.Mode == ModeEphemeral && p.Kind != nil {
		return p.Mode.String() + "(" + p.Kind.String() + ")"
	}
	return p.Mode.String()
}

// Visible reports whether the surface should be drawn at all.
func (p Presentation) Visible() bool {
	return p.Mode != ModeHidden
}
