package display

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/model"
)

// Monitor is what a platform backend reports about one connected output.
type Monitor struct {
	Connector string
	Name      string
	// MeasuredCutout is the camera housing size reported by hardware, if any.
	MeasuredCutout *model.Size
}

// Registry enumerates displays, classifies them and resolves each display's
// presentation style from capability plus user preference.
type Registry struct {
	mu     sync.RWMutex
	config *config.DaemonConfig
	logger *slog.Logger

	monitors []Monitor
	// Persisted per-display preferences, layered over config overrides.
	preferences map[model.DisplayID]model.StylePreference

	displays map[model.DisplayID]model.Display
	order    []model.DisplayID
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg *config.DaemonConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}
	return &Registry{
		config:      cfg,
		logger:      logger,
		preferences: make(map[model.DisplayID]model.StylePreference),
		displays:    make(map[model.DisplayID]model.Display),
	}
}

// Sync replaces the set of connected monitors and reclassifies them.
// It returns the IDs of displays that disappeared.
func (r *Registry) Sync(monitors []Monitor) []model.DisplayID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.monitors = append(r.monitors[:0], monitors...)
	return r.rebuildLocked()
}

// SetPreferences replaces the persisted style preferences and reclassifies.
func (r *Registry) SetPreferences(prefs map[model.DisplayID]model.StylePreference) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.preferences = make(map[model.DisplayID]model.StylePreference, len(prefs))
	for id, p := range prefs {
		r.preferences[id] = p
	}
	r.rebuildLocked()
}

// UpdateConfig swaps the configuration and reclassifies.
func (r *Registry) UpdateConfig(cfg *config.DaemonConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config = cfg
	r.rebuildLocked()
}

// rebuildLocked recomputes every display. Caller must hold the lock.
func (r *Registry) rebuildLocked() []model.DisplayID {
	next := make(map[model.DisplayID]model.Display, len(r.monitors))
	order := make([]model.DisplayID, 0, len(r.monitors))

	for _, m := range r.monitors {
		if m.Connector == "" {
			r.logger.Warn("ignoring monitor without connector", "name", m.Name)
			continue
		}
		d := r.classify(m)
		if _, dup := next[d.ID]; dup {
			continue
		}
		next[d.ID] = d
		order = append(order, d.ID)
	}

	var removed []model.DisplayID
	for id := range r.displays {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })

	r.displays = next
	r.order = order

	r.logger.Debug("display registry rebuilt", "count", len(order), "removed", len(removed))
	return removed
}

// classify derives capability, extent and style for one monitor.
func (r *Registry) classify(m Monitor) model.Display {
	id := model.DisplayID(m.Connector)
	d := model.Display{
		ID:   id,
		Name: m.Name,
		CutoutExtent: model.Size{
			Width:  r.config.Display.CutoutWidth,
			Height: r.config.Display.CutoutHeight,
		},
	}

	pref, _ := model.ParseStylePreference(r.config.Display.DefaultStyle)

	if m.MeasuredCutout != nil {
		d.HasPhysicalCutout = true
		d.CutoutExtent = *m.MeasuredCutout
	}

	if o, ok := r.config.Display.Override(m.Connector); ok {
		if o.Cutout {
			d.HasPhysicalCutout = true
		}
		if o.CutoutWidth > 0 {
			d.CutoutExtent.Width = o.CutoutWidth
		}
		if o.CutoutHeight > 0 {
			d.CutoutExtent.Height = o.CutoutHeight
		}
		if o.Style != "" {
			pref, _ = model.ParseStylePreference(o.Style)
		}
	}

	if p, ok := r.preferences[id]; ok {
		pref = p
	}

	d.Style = ResolveStyle(d.HasPhysicalCutout, pref)
	return d
}

// ResolveStyle picks the presentation style from capability and preference.
func ResolveStyle(hasCutout bool, pref model.StylePreference) model.Style {
	switch pref {
	case model.StylePreferenceCutout:
		return model.StyleCutout
	case model.StylePreferencePill:
		return model.StylePill
	default:
		if hasCutout {
			return model.StyleCutout
		}
		return model.StylePill
	}
}

// Get returns the display with the given ID.
func (r *Registry) Get(id model.DisplayID) (model.Display, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.displays[id]
	return d, ok
}

// Has reports whether id is a connected display.
func (r *Registry) Has(id model.DisplayID) bool {
	_, ok := r.Get(id)
	return ok
}

// All returns every display in connection order.
func (r *Registry) All() []model.Display {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Display, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.displays[id])
	}
	return out
}

// Count returns the number of connected displays.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// RegistryError reports a display lookup failure.
type RegistryError struct {
	Display model.DisplayID
	Message string
	Cause   error
}

func (e *RegistryError) Error() string {
	msg := e.Message
	if e.Display != "" {
		msg = string(e.Display) + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *RegistryError) Unwrap() error {
	return e.Cause
}

// Require returns the display or a RegistryError.
func (r *Registry) Require(id model.DisplayID) (model.Display, error) {
	d, ok := r.Get(id)
	if !ok {
		return model.Display{}, &RegistryError{Display: id, Message: "unknown display"}
	}
	return d, nil
}
