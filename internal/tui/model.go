// Package tui provides the BubbleTea terminal preview of the notch engine.
// It runs a real engine in process and lets the keyboard stand in for
// pointers, shelves, players and system monitors.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/engine"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// historyLimit is the number of transitions kept on screen.
const historyLimit = 8

// refreshInterval drives countdown redraws.
const refreshInterval = 100 * time.Millisecond

// sampleTracks are cycled by the next-track key.
var sampleTracks = []string{
	"Khruangbin - Maria También",
	"Bonobo - Kerala",
	"Floating Points - Silhouettes",
	"Caribou - Home",
}

// DefaultMonitors is a built-in cutout panel next to an external monitor.
func DefaultMonitors() []display.Monitor {
	return []display.Monitor{
		{Connector: "eDP-1", Name: "Built-in", MeasuredCutout: &model.Size{Width: 185, Height: 32}},
		{Connector: "HDMI-A-1", Name: "External"},
	}
}

// transition is one logged presentation change.
type transition struct {
	At      time.Time
	Display model.DisplayID
	From    string
	To      string
}

// history records presentation changes. It is shared by pointer so the
// engine subscriber and the value-typed Model see the same log.
type history struct {
	last    map[model.DisplayID]string
	entries []transition
}

func (h *history) record(at time.Time, ps []model.Presentation) {
	for _, p := range ps {
		label := p.Label()
		prev, seen := h.last[p.Display]
		h.last[p.Display] = label
		if !seen || prev == label {
			continue
		}
		h.entries = append(h.entries, transition{At: at, Display: p.Display, From: prev, To: label})
		if len(h.entries) > historyLimit {
			h.entries = h.entries[len(h.entries)-historyLimit:]
		}
	}
}

// Model is the preview model.
type Model struct {
	eng   *engine.Engine
	sched sched.Scheduler
	wait  tea.Cmd // Nil when callbacks are driven externally

	displays []model.DisplayID
	focus    int

	// Simulated collaborators
	items      int
	playing    bool
	track      int
	volume     float64
	brightness float64
	battery    float64
	capsLock   bool
	focusMode  bool
	locked     bool

	log *history

	help     help.Model
	keys     KeyMap
	showHelp bool
	width    int
}

// New creates a preview over monitors using cfg's timings.
func New(cfg *config.DaemonConfig, monitors []display.Monitor) Model {
	s := newTeaScheduler()
	m := newModel(s, cfg, monitors)
	m.wait = s.wait
	return m
}

func newModel(s sched.Scheduler, cfg *config.DaemonConfig, monitors []display.Monitor) Model {
	if len(monitors) == 0 {
		monitors = DefaultMonitors()
	}

	// The engine logs every transition; the preview shows them instead.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(s, nil, cfg, logger)

	log := &history{last: make(map[model.DisplayID]string)}
	eng.OnChange(func(ps []model.Presentation) { log.record(s.Now(), ps) })
	eng.SyncDisplays(monitors)

	displays := make([]model.DisplayID, 0, len(monitors))
	for _, d := range eng.Registry().All() {
		displays = append(displays, d.ID)
	}

	return Model{
		eng:        eng,
		sched:      s,
		displays:   displays,
		volume:     0.5,
		brightness: 0.7,
		battery:    0.42,
		log:        log,
		help:       help.New(),
		keys:       DefaultKeyMap(),
	}
}

// Engine returns the engine under preview.
func (m Model) Engine() *engine.Engine {
	return m.eng
}

// Init starts the callback pump and the refresh ticker.
func (m Model) Init() tea.Cmd {
	if m.wait == nil {
		return tick()
	}
	return tea.Batch(m.wait, tick())
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callbackMsg:
		msg()
		return m, m.wait

	case tickMsg:
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// focused returns the display keyboard gestures apply to.
func (m Model) focused() model.DisplayID {
	if len(m.displays) == 0 {
		return ""
	}
	return m.displays[m.focus%len(m.displays)]
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.focused()
	snap := m.eng.Snapshot()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.NextDisplay):
		if len(m.displays) > 0 {
			m.focus = (m.focus + 1) % len(m.displays)
		}
	case key.Matches(msg, m.keys.Hover):
		m.eng.SetHover(d, snap.HoverOwner != d)
	case key.Matches(msg, m.keys.Drag):
		m.eng.SetDragging(d, snap.DragOver != d)

	case key.Matches(msg, m.keys.Expand):
		_ = m.eng.ToggleExpand(d)
	case key.Matches(msg, m.keys.Collapse):
		m.eng.Collapse()
	case key.Matches(msg, m.keys.AddItem):
		m.items++
		m.eng.ItemsChanged(m.items, d)
	case key.Matches(msg, m.keys.DropItem):
		if m.items > 0 {
			m.items--
			m.eng.ItemsChanged(m.items, d)
		}
	case key.Matches(msg, m.keys.ClearTray):
		m.items = 0
		m.eng.ItemsChanged(0, d)

	case key.Matches(msg, m.keys.VolumeUp):
		m.volume = model.ClampValue(m.volume + 0.1)
		m.eng.Submit(model.SignalVolume, m.volume, 0)
	case key.Matches(msg, m.keys.VolumeDown):
		m.volume = model.ClampValue(m.volume - 0.1)
		m.eng.Submit(model.SignalVolume, m.volume, 0)
	case key.Matches(msg, m.keys.Brightness):
		m.brightness += 0.1
		if m.brightness > 1.05 {
			m.brightness = 0.1
		}
		m.brightness = model.ClampValue(m.brightness)
		m.eng.Submit(model.SignalBrightness, m.brightness, 0)
	case key.Matches(msg, m.keys.Battery):
		m.battery = model.ClampValue(m.battery - 0.05)
		if m.battery <= 0 {
			m.battery = 1
		}
		m.eng.Submit(model.SignalBattery, m.battery, 0)
	case key.Matches(msg, m.keys.CapsLock):
		m.capsLock = !m.capsLock
		m.eng.Submit(model.SignalCapsLock, model.BoolValue(m.capsLock), 0)
	case key.Matches(msg, m.keys.Focus):
		m.focusMode = !m.focusMode
		m.eng.Submit(model.SignalFocusMode, model.BoolValue(m.focusMode), 0)
	case key.Matches(msg, m.keys.Accessory):
		m.eng.Submit(model.SignalAccessoryConnect, 1, 0)
	case key.Matches(msg, m.keys.ScreenLock):
		m.locked = !m.locked
		m.eng.Submit(model.SignalScreenLock, model.BoolValue(m.locked), 0)
	case key.Matches(msg, m.keys.Dismiss):
		m.eng.Dismiss()

	case key.Matches(msg, m.keys.PlayPause):
		m.playing = !m.playing
		m.eng.PlaybackChanged(m.playing, sampleTracks[m.track])
	case key.Matches(msg, m.keys.NextTrack):
		m.track = (m.track + 1) % len(sampleTracks)
		m.eng.PlaybackChanged(m.playing, sampleTracks[m.track])
	case key.Matches(msg, m.keys.PinMedia):
		m.eng.ToggleMedia()
	case key.Matches(msg, m.keys.HideMedia):
		m.eng.HideMedia()
	}
	return m, nil
}

// remaining formats the time left until t.
func remaining(now, t time.Time) string {
	d := t.Sub(now)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
