package surface

import (
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/notchd/internal/engine"
	"github.com/jmylchreest/notchd/internal/model"
)

// Manager keeps one Notch per connected monitor in step with the engine.
// All methods run on the GTK main loop.
type Manager struct {
	app     *gtk.Application
	eng     *engine.Engine
	logger  *slog.Logger
	display *gdk.Display

	windows map[model.DisplayID]*Notch
}

// NewManager creates a surface manager rendering eng.
func NewManager(app *gtk.Application, eng *engine.Engine, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		app:     app,
		eng:     eng,
		logger:  logger,
		windows: make(map[model.DisplayID]*Notch),
	}
}

// Start enumerates monitors, creates windows and subscribes to changes.
func (m *Manager) Start() error {
	m.display = gdk.DisplayGetDefault()
	if m.display == nil {
		return errors.New("no display available")
	}

	m.eng.OnChange(m.render)
	m.display.Monitors().ConnectItemsChanged(func(position, removed, added uint) {
		m.logger.Info("monitor configuration changed", "added", added, "removed", removed)
		m.Sync()
	})
	m.Sync()

	m.logger.Info("surface manager started", "windows", len(m.windows))
	return nil
}

// Sync reconciles windows with the current monitors and tells the engine.
func (m *Manager) Sync() {
	outs := enumerate(m.display)
	gdkByID := byID(outs)

	for id, n := range m.windows {
		if _, ok := gdkByID[id]; !ok {
			n.Close()
			delete(m.windows, id)
			m.logger.Debug("notch window closed", "display", id)
		}
	}
	for id, mon := range gdkByID {
		if _, ok := m.windows[id]; ok {
			continue
		}
		m.windows[id] = NewNotch(m.app, id, mon, m.eng, m.logger)
		m.logger.Debug("notch window created", "display", id)
	}

	// SyncDisplays notifies, which renders the new windows.
	m.eng.SyncDisplays(monitors(outs))
}

// MenuOpen reports whether any window shows its context menu.
func (m *Manager) MenuOpen() bool {
	for _, n := range m.windows {
		if n.MenuOpen() {
			return true
		}
	}
	return false
}

// Displays returns the IDs of displays with a window, sorted.
func (m *Manager) Displays() []model.DisplayID {
	return slices.Sorted(maps.Keys(m.windows))
}

func (m *Manager) render(ps []model.Presentation) {
	items := m.eng.Snapshot().Tray.Items
	for _, p := range ps {
		if n, ok := m.windows[p.Display]; ok {
			n.Render(p, items)
		}
	}
}

// Stop destroys every window.
func (m *Manager) Stop() {
	for id, n := range m.windows {
		n.Close()
		delete(m.windows, id)
	}
	m.logger.Info("surface manager stopped")
}
