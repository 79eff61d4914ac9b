package engine

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// MenuProbe reports whether a context menu is open over the tray. It is
// consulted when the collapse timer fires, not when it is armed.
type MenuProbe interface {
	MenuOpen() bool
}

// MenuProbeFunc adapts a function to MenuProbe.
type MenuProbeFunc func() bool

// MenuOpen calls f.
func (f MenuProbeFunc) MenuOpen() bool { return f() }

// TrayState is the observable state of the tray controller.
type TrayState struct {
	Owner        model.DisplayID `json:"owner,omitempty" yaml:"owner,omitempty"`
	Items        int             `json:"items" yaml:"items"`
	ContentHover bool            `json:"content_hover" yaml:"content_hover"`
	Deadline     time.Time       `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

// Tray owns expansion, auto-collapse and drop-site affinity.
type Tray struct {
	sched  sched.Scheduler
	cfg    func() config.TrayConfig
	own    *Ownership
	logger *slog.Logger

	menu       MenuProbe
	hasDisplay func(model.DisplayID) bool

	items        int
	contentHover bool

	collapse sched.Timer
	gen      uint64
	deadline time.Time

	onChange func()
}

// NewTray creates a tray controller that records ownership in own.
func NewTray(s sched.Scheduler, cfg func() config.TrayConfig, own *Ownership, logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tray{sched: s, cfg: cfg, own: own, logger: logger}
}

// SetMenuProbe sets the context menu probe.
func (t *Tray) SetMenuProbe(p MenuProbe) {
	t.menu = p
}

// SetDisplayCheck sets the function used to decide whether a drop site
// still exists.
func (t *Tray) SetDisplayCheck(fn func(model.DisplayID) bool) {
	t.hasDisplay = fn
}

// SetChangeCallback sets the function called when a timer collapses the tray.
func (t *Tray) SetChangeCallback(fn func()) {
	t.onChange = fn
}

// State returns the observable tray state.
func (t *Tray) State() TrayState {
	owner, _ := t.own.ExpandedOwner()
	return TrayState{
		Owner:        owner,
		Items:        t.items,
		ContentHover: t.contentHover,
		Deadline:     t.deadline,
	}
}

// Items returns the tray item count.
func (t *Tray) Items() int {
	return t.items
}

// RequestExpand gives d the tray and arms a fresh collapse deadline. Any
// previous owner loses the tray in the same step.
func (t *Tray) RequestExpand(d model.DisplayID) {
	if d == "" {
		return
	}
	prev := t.own.setExpanded(d)
	if prev != d {
		t.contentHover = false
		if prev != "" {
			t.logger.Debug("tray moved", "from", prev, "to", d)
		} else {
			t.logger.Debug("tray expanded", "display", d)
		}
	}
	t.rearm()
}

// Collapse releases the tray and hover ownership. Returns false if nothing
// was expanded.
func (t *Tray) Collapse() bool {
	t.disarm()
	t.contentHover = false
	owner, ok := t.own.ExpandedOwner()
	t.own.clearExpanded()
	t.own.clearHover()
	if ok {
		t.logger.Debug("tray collapsed", "display", owner)
	}
	return ok
}

// ToggleExpand collapses the tray if d owns it and expands it on d otherwise.
func (t *Tray) ToggleExpand(d model.DisplayID) {
	if t.own.IsExpanded(d) {
		t.Collapse()
		return
	}
	t.RequestExpand(d)
}

// HoverChanged must be called after hover ownership changes. Hovering the
// owning display holds the tray open and leaving it re-arms the deadline.
func (t *Tray) HoverChanged() {
	owner, ok := t.own.ExpandedOwner()
	if !ok {
		return
	}
	if t.own.IsHovered(owner) || t.contentHover {
		t.disarm()
		return
	}
	if t.collapse == nil {
		t.rearm()
	}
}

// SetContentHover records whether the pointer is inside the expanded content
// of display d. Reports from a non-owning display are ignored. Returns
// whether the state changed.
func (t *Tray) SetContentHover(d model.DisplayID, inside bool) bool {
	if !t.own.IsExpanded(d) || t.contentHover == inside {
		return false
	}
	t.contentHover = inside
	t.HoverChanged()
	return true
}

// ItemsChanged updates the tray item count. site is the display where the
// change happened, e.g. where files were dropped. Emptying the tray
// collapses it, and the first item expands the tray at site unless site
// already owns it or is busy.
func (t *Tray) ItemsChanged(count int, site model.DisplayID) {
	if count < 0 {
		count = 0
	}
	prev := t.items
	t.items = count

	switch {
	case count == 0:
		if _, ok := t.own.ExpandedOwner(); ok && prev > 0 {
			t.Collapse()
		}
	case prev == 0 && site != "" && !t.own.IsExpanded(site) && !t.busy(site):
		t.RequestExpand(site)
	default:
		if _, ok := t.own.ExpandedOwner(); ok && t.collapse != nil {
			// Delay depends on the item count.
			t.rearm()
		}
	}
}

// busy reports whether a drop site cannot take the tray right now.
func (t *Tray) busy(site model.DisplayID) bool {
	if t.menu != nil && t.menu.MenuOpen() {
		return true
	}
	if t.hasDisplay != nil && !t.hasDisplay(site) {
		return true
	}
	return false
}

// Forget handles removal of display d.
func (t *Tray) Forget(d model.DisplayID) bool {
	if t.own.IsExpanded(d) {
		t.disarm()
		t.contentHover = false
	}
	return t.own.forget(d)
}

func (t *Tray) delay() time.Duration {
	cfg := t.cfg()
	if t.items > 0 {
		return cfg.CollapseDelayItems.Duration()
	}
	return cfg.CollapseDelay.Duration()
}

func (t *Tray) rearm() {
	t.disarm()
	owner, ok := t.own.ExpandedOwner()
	if !ok || t.own.IsHovered(owner) || t.contentHover {
		return
	}
	d := t.delay()
	gen := t.gen
	t.deadline = t.sched.Now().Add(d)
	t.collapse = t.sched.AfterFunc(d, func() { t.collapseFired(owner, gen) })
}

func (t *Tray) disarm() {
	sched.StopTimer(t.collapse)
	t.collapse = nil
	t.deadline = time.Time{}
	t.gen++
}

// collapseFired checks the tray is still in the state that armed the timer
// before collapsing.
func (t *Tray) collapseFired(owner model.DisplayID, gen uint64) {
	if gen != t.gen || !t.own.IsExpanded(owner) {
		return
	}
	t.collapse = nil
	t.deadline = time.Time{}

	if t.own.IsHovered(owner) || t.contentHover {
		return
	}
	if t.menu != nil && t.menu.MenuOpen() {
		t.logger.Debug("tray collapse deferred, menu open", "display", owner)
		t.rearm()
		return
	}

	t.Collapse()
	if t.onChange != nil {
		t.onChange()
	}
}
