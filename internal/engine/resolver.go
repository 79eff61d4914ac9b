package engine

import (
	"time"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/model"
)

// Snapshot is a consistent read of every authoritative component, taken at
// one instant. Resolve needs nothing else.
type Snapshot struct {
	At            time.Time       `json:"at" yaml:"at"`
	ExpandedOwner model.DisplayID `json:"expanded_owner,omitempty" yaml:"expanded_owner,omitempty"`
	HoverOwner    model.DisplayID `json:"hover_owner,omitempty" yaml:"hover_owner,omitempty"`
	DragOver      model.DisplayID `json:"drag_over,omitempty" yaml:"drag_over,omitempty"`
	Slot          *Slot           `json:"slot,omitempty" yaml:"slot,omitempty"`
	MediaVisible  bool            `json:"media_visible" yaml:"media_visible"`
	Media         MediaState      `json:"media" yaml:"media"`
	Tray          TrayState       `json:"tray" yaml:"tray"`
}

// Resolve computes the single presentation for display d. Earlier steps win:
// expanded tray, ephemeral overlay, media, hover or drag peek, then the idle
// baseline of the display's style.
func Resolve(s Snapshot, d model.Display, g config.GeometryConfig) model.Presentation {
	p := model.Presentation{Display: d.ID, Style: d.Style}

	switch {
	case s.ExpandedOwner != "" && s.ExpandedOwner == d.ID:
		p.Mode = model.ModeExpanded
		if s.Tray.Items == 0 && s.MediaVisible {
			p.Track = s.Media.Track
		}
	case s.Slot != nil:
		kind := s.Slot.Kind
		p.Mode = model.ModeEphemeral
		p.Kind = &kind
		p.Value = s.Slot.Value
	case s.MediaVisible && s.ExpandedOwner == "":
		p.Mode = model.ModeMedia
		p.Track = s.Media.Track
	case s.HoverOwner != "" && s.HoverOwner == d.ID:
		p.Mode = model.ModeHoverPeek
	case s.DragOver != "" && s.DragOver == d.ID:
		p.Mode = model.ModeDragPeek
	case d.Style == model.StylePill:
		p.Mode = model.ModeHidden
	default:
		p.Mode = model.ModeIdle
	}

	p.Geometry = GeometryFor(p, d, s.Tray.Items, g)
	return p
}
