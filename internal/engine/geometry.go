package engine

import (
	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/model"
)

// GeometryFor returns the target size of presentation p on display d. Width
// is the cutout extent plus two wings, so the shape grows symmetrically
// around the cutout.
func GeometryFor(p model.Presentation, d model.Display, items int, g config.GeometryConfig) model.Geometry {
	ext := d.CutoutExtent
	switch p.Mode {
	case model.ModeHidden:
		return model.Geometry{}
	case model.ModeIdle:
		return model.Geometry{Width: ext.Width, Height: ext.Height, CornerRadius: g.Radius.Idle}
	case model.ModeHoverPeek, model.ModeDragPeek:
		h := ext.Height
		if d.Style == model.StyleCutout {
			h += g.PeekLift
		}
		return model.Geometry{
			Width:        ext.Width + 2*g.HoverMargin,
			Height:       h,
			CornerRadius: g.Radius.Peek,
		}
	case model.ModeEphemeral:
		wing := g.EphemeralWing
		if p.Kind != nil {
			wing = g.WingFor(*p.Kind)
		}
		return model.Geometry{
			Width:        ext.Width + 2*wing,
			Height:       ext.Height,
			CornerRadius: g.Radius.Ephemeral,
		}
	case model.ModeMedia:
		return model.Geometry{
			Width:        ext.Width + 2*g.MediaWing,
			Height:       max(ext.Height, g.MediaHeight),
			CornerRadius: g.Radius.Media,
		}
	case model.ModeExpanded:
		content := g.HeaderHeight
		switch {
		case items > 0:
			perRow := max(g.ItemsPerRow, 1)
			rows := (items + perRow - 1) / perRow
			content += rows * g.RowHeight
		case p.Track != "":
			content += g.MediaHeight
		default:
			// Empty drop zone.
			content += g.RowHeight
		}
		return model.Geometry{
			Width:        max(ext.Width, g.ExpandedWidth) + 2*g.ExpandedWing,
			Height:       ext.Height + content,
			CornerRadius: g.Radius.Expanded,
		}
	}
	return model.Geometry{Width: ext.Width, Height: ext.Height}
}
