package engine

import "github.com/jmylchreest/notchd/internal/model"

// Ownership holds the two exclusive interaction rights. Each field is a
// single display ID (empty means unowned), so assigning a new owner always
// replaces the previous one.
type Ownership struct {
	expanded model.DisplayID
	hover    model.DisplayID
}

// ExpandedOwner returns the display that owns the expanded tray.
func (o *Ownership) ExpandedOwner() (model.DisplayID, bool) {
	return o.expanded, o.expanded != ""
}

// HoverOwner returns the display that owns interactive hover.
func (o *Ownership) HoverOwner() (model.DisplayID, bool) {
	return o.hover, o.hover != ""
}

// IsExpanded reports whether d owns the expanded tray.
func (o *Ownership) IsExpanded(d model.DisplayID) bool {
	return d != "" && o.expanded == d
}

// IsHovered reports whether d owns hover.
func (o *Ownership) IsHovered(d model.DisplayID) bool {
	return d != "" && o.hover == d
}

// setExpanded assigns the tray unconditionally and returns the previous owner.
func (o *Ownership) setExpanded(d model.DisplayID) model.DisplayID {
	prev := o.expanded
	o.expanded = d
	return prev
}

func (o *Ownership) clearExpanded() {
	o.expanded = ""
}

// setHover applies a hover transition reported by display d. Losing hover
// only clears ownership held by d itself. Reports whether anything changed.
func (o *Ownership) setHover(d model.DisplayID, hovering bool) bool {
	if hovering {
		if o.hover == d {
			return false
		}
		o.hover = d
		return true
	}
	if o.hover != d || d == "" {
		return false
	}
	o.hover = ""
	return true
}

func (o *Ownership) clearHover() bool {
	if o.hover == "" {
		return false
	}
	o.hover = ""
	return true
}

// forget drops every right held by a display that went away.
func (o *Ownership) forget(d model.DisplayID) (hadExpanded bool) {
	if o.hover == d {
		o.hover = ""
	}
	if o.expanded == d {
		o.expanded = ""
		return true
	}
	return false
}
