package engine

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// ChangeFunc receives the presentation of every display after a change.
type ChangeFunc func([]model.Presentation)

// Engine wires the components together and is the only entry point used by
// surfaces, monitors and the control service.
type Engine struct {
	sched    sched.Scheduler
	registry *display.Registry
	logger   *slog.Logger
	cfg      *config.DaemonConfig

	own     *Ownership
	arbiter *Arbiter
	media   *Media
	tray    *Tray

	dragOver model.DisplayID

	subscribers []ChangeFunc
	last        map[model.DisplayID]model.Presentation
}

// Option configures an Engine.
type Option func(*Engine)

// WithMenuProbe sets the probe consulted before auto-collapse.
func WithMenuProbe(p MenuProbe) Option {
	return func(e *Engine) { e.tray.SetMenuProbe(p) }
}

// WithInstallHook sets a function called for every installed ephemeral slot.
func WithInstallHook(fn func(Slot)) Option {
	return func(e *Engine) { e.arbiter.SetInstallCallback(fn) }
}

// New creates an engine. All methods must be called on the thread s runs
// callbacks on.
func New(s sched.Scheduler, registry *display.Registry, cfg *config.DaemonConfig, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}
	if registry == nil {
		registry = display.NewRegistry(cfg, logger)
	}

	e := &Engine{
		sched:    s,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
		own:      &Ownership{},
		last:     make(map[model.DisplayID]model.Presentation),
	}
	e.arbiter = NewArbiter(s, e.own, logger.With("component", "arbiter"))
	e.media = NewMedia(s, func() config.MediaConfig { return e.cfg.Media }, logger.With("component", "media"))
	e.tray = NewTray(s, func() config.TrayConfig { return e.cfg.Tray }, e.own, logger.With("component", "tray"))
	e.tray.SetDisplayCheck(registry.Has)

	e.arbiter.SetChangeCallback(e.notify)
	e.media.SetChangeCallback(e.notify)
	e.tray.SetChangeCallback(e.notify)

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnChange registers fn to be called with every display's presentation after
// each state change.
func (e *Engine) OnChange(fn ChangeFunc) {
	e.subscribers = append(e.subscribers, fn)
}

// Submit installs an ephemeral overlay. A non-positive duration uses the
// configured default for kind.
func (e *Engine) Submit(kind model.SignalKind, value float64, duration time.Duration) Slot {
	if duration <= 0 {
		duration = e.cfg.Ephemeral.DurationFor(kind)
	}
	slot := e.arbiter.Submit(kind, value, duration)
	e.tray.HoverChanged()
	e.notify()
	return slot
}

// Dismiss clears the ephemeral overlay.
func (e *Engine) Dismiss() bool {
	if !e.arbiter.Dismiss() {
		return false
	}
	e.notify()
	return true
}

// RequestExpand gives d the expanded tray.
func (e *Engine) RequestExpand(d model.DisplayID) error {
	if _, err := e.registry.Require(d); err != nil {
		return err
	}
	e.tray.RequestExpand(d)
	e.notify()
	return nil
}

// Collapse closes the tray wherever it is.
func (e *Engine) Collapse() bool {
	if !e.tray.Collapse() {
		return false
	}
	e.notify()
	return true
}

// ToggleExpand expands the tray on d or collapses it if d already owns it.
func (e *Engine) ToggleExpand(d model.DisplayID) error {
	if _, err := e.registry.Require(d); err != nil {
		return err
	}
	e.tray.ToggleExpand(d)
	e.notify()
	return nil
}

// SetHover reports pointer enter or leave on the notch of display d.
func (e *Engine) SetHover(d model.DisplayID, hovering bool) {
	if hovering && !e.registry.Has(d) {
		return
	}
	if !e.own.setHover(d, hovering) {
		return
	}
	e.tray.HoverChanged()
	e.notify()
}

// SetContentHover reports pointer enter or leave on the expanded content of d.
func (e *Engine) SetContentHover(d model.DisplayID, inside bool) {
	if e.tray.SetContentHover(d, inside) {
		e.notify()
	}
}

// SetDragging reports a drag entering or leaving display d.
func (e *Engine) SetDragging(d model.DisplayID, dragging bool) {
	switch {
	case dragging && e.registry.Has(d) && e.dragOver != d:
		e.dragOver = d
	case !dragging && d != "" && e.dragOver == d:
		e.dragOver = ""
	default:
		return
	}
	e.notify()
}

// ItemsChanged updates the tray item count. site is where the change
// happened and may be empty.
func (e *Engine) ItemsChanged(count int, site model.DisplayID) {
	e.tray.ItemsChanged(count, site)
	if site != "" && e.dragOver == site {
		e.dragOver = ""
	}
	e.notify()
}

// PlaybackChanged feeds a media player update.
func (e *Engine) PlaybackChanged(playing bool, track string) {
	e.media.PlaybackChanged(playing, track)
	e.notify()
}

// PinMedia forces the media presentation visible.
func (e *Engine) PinMedia() bool {
	if !e.media.Pin() {
		return false
	}
	e.notify()
	return true
}

// HideMedia hides the media presentation until playback restarts.
func (e *Engine) HideMedia() {
	e.media.Hide()
	e.notify()
}

// ToggleMedia pins hidden media or hides visible media.
func (e *Engine) ToggleMedia() bool {
	if !e.media.Toggle() {
		return false
	}
	e.notify()
	return true
}

// SyncDisplays replaces the connected display set. Removed displays lose
// every ownership they held.
func (e *Engine) SyncDisplays(monitors []display.Monitor) {
	removed := e.registry.Sync(monitors)
	e.forget(removed)
	e.notify()
}

// SetStylePreferences applies per-display style preferences.
func (e *Engine) SetStylePreferences(prefs map[model.DisplayID]model.StylePreference) {
	e.registry.SetPreferences(prefs)
	e.notify()
}

func (e *Engine) forget(removed []model.DisplayID) {
	for _, id := range removed {
		if e.tray.Forget(id) {
			e.logger.Info("tray owner disconnected, tray collapsed", "display", id)
		}
		if e.dragOver == id {
			e.dragOver = ""
		}
		delete(e.last, id)
	}
}

// UpdateConfig swaps the configuration. Running timers keep their deadline,
// new timers use the new values.
func (e *Engine) UpdateConfig(cfg *config.DaemonConfig) {
	if cfg == nil {
		return
	}
	wasEnabled := e.cfg.Media.Enabled
	e.cfg = cfg
	if wasEnabled && !cfg.Media.Enabled {
		e.media.Reset()
	}
	e.registry.UpdateConfig(cfg)
	e.logger.Info("engine configuration updated")
	e.notify()
}

// Config returns the active configuration.
func (e *Engine) Config() *config.DaemonConfig {
	return e.cfg
}

// Registry returns the display registry.
func (e *Engine) Registry() *display.Registry {
	return e.registry
}

// Snapshot reads every component at the current instant.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		At:           e.sched.Now(),
		DragOver:     e.dragOver,
		MediaVisible: e.media.Visible(),
		Media:        e.media.State(),
		Tray:         e.tray.State(),
	}
	s.ExpandedOwner, _ = e.own.ExpandedOwner()
	s.HoverOwner, _ = e.own.HoverOwner()
	if slot, ok := e.arbiter.Active(); ok {
		s.Slot = &slot
	}
	return s
}

// Resolve returns the presentation of display d.
func (e *Engine) Resolve(d model.DisplayID) (model.Presentation, error) {
	disp, err := e.registry.Require(d)
	if err != nil {
		return model.Presentation{}, err
	}
	return Resolve(e.Snapshot(), disp, e.cfg.Geometry), nil
}

// ResolveAll returns the presentation of every display from one snapshot.
func (e *Engine) ResolveAll() []model.Presentation {
	snap := e.Snapshot()
	displays := e.registry.All()
	out := make([]model.Presentation, 0, len(displays))
	for _, d := range displays {
		out = append(out, Resolve(snap, d, e.cfg.Geometry))
	}
	return out
}

// Status is a serialisable view of engine state.
type Status struct {
	Snapshot      Snapshot             `json:"snapshot" yaml:"snapshot"`
	Displays      []model.Display      `json:"displays" yaml:"displays"`
	Presentations []model.Presentation `json:"presentations" yaml:"presentations"`
}

// Status returns the current state of the engine.
func (e *Engine) Status() Status {
	return Status{
		Snapshot:      e.Snapshot(),
		Displays:      e.registry.All(),
		Presentations: e.ResolveAll(),
	}
}

// notify resolves every display and hands the result to subscribers.
func (e *Engine) notify() {
	presentations := e.ResolveAll()
	for _, p := range presentations {
		if prev, ok := e.last[p.Display]; !ok || prev.Label() != p.Label() {
			e.logger.Debug("presentation changed", "display", p.Display, "mode", p.Label())
		}
		e.last[p.Display] = p
	}
	for _, fn := range e.subscribers {
		fn(presentations)
	}
}
