package engine

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *sched.Manual) {
	t.Helper()
	cfg := config.DefaultDaemonConfig()
	cfg.Display.Overrides = []config.DisplayOverride{{Connector: "eDP-1", Cutout: true}}

	clock := sched.NewManual(epoch)
	e := New(clock, nil, cfg, nil, opts...)
	e.SyncDisplays([]display.Monitor{{Connector: "eDP-1"}, {Connector: "DP-2"}})
	require.Equal(t, 2, e.Registry().Count())
	return e, clock
}

func labels(t *testing.T, e *Engine) map[model.DisplayID]string {
	t.Helper()
	out := make(map[model.DisplayID]string)
	for _, p := range e.ResolveAll() {
		out[p.Display] = p.Label()
	}
	return out
}

func startMedia(t *testing.T, e *Engine, clock *sched.Manual, track string) {
	t.Helper()
	e.PlaybackChanged(true, track)
	clock.Advance(time.Second)
	require.Equal(t, "media", labels(t, e)["eDP-1"])
}

// Battery overlay on top of media returns to media, not idle.
func TestEngine_EphemeralOverMedia(t *testing.T) {
	e, clock := newTestEngine(t)
	startMedia(t, e, clock, "A")

	e.Submit(model.SignalBattery, 0.15, 3*time.Second)
	assert.Equal(t, map[model.DisplayID]string{
		"eDP-1": "ephemeral(battery)",
		"DP-2":  "ephemeral(battery)",
	}, labels(t, e))

	clock.Advance(3 * time.Second)
	assert.Equal(t, map[model.DisplayID]string{
		"eDP-1": "media",
		"DP-2":  "media",
	}, labels(t, e))
	assert.Equal(t, MediaVisible, e.Snapshot().Media.Phase)
}

// Items arriving on another display move the tray there.
func TestEngine_DropSitePreemption(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.RequestExpand("eDP-1"))

	e.ItemsChanged(1, "DP-2")
	snap := e.Snapshot()
	assert.Equal(t, model.DisplayID("DP-2"), snap.ExpandedOwner)
	assert.Equal(t, map[model.DisplayID]string{
		"eDP-1": "idle",
		"DP-2":  "expanded",
	}, labels(t, e))
}

func TestEngine_ReexpandKeepsOneCollapseTimer(t *testing.T) {
	e, clock := newTestEngine(t)

	require.NoError(t, e.RequestExpand("eDP-1"))
	clock.Advance(500 * time.Millisecond)
	e.Collapse()
	require.NoError(t, e.RequestExpand("eDP-1"))

	assert.Equal(t, 1, clock.PendingCount())
	assert.Equal(t, epoch.Add(3500*time.Millisecond), e.Snapshot().Tray.Deadline)
}

// A track change pulses the media presentation through hidden.
func TestEngine_TrackChangeSuppression(t *testing.T) {
	e, clock := newTestEngine(t)
	startMedia(t, e, clock, "A")

	e.PlaybackChanged(true, "B")
	assert.Equal(t, map[model.DisplayID]string{
		"eDP-1": "idle",
		"DP-2":  "hidden",
	}, labels(t, e))

	clock.Advance(300 * time.Millisecond)
	for _, p := range e.ResolveAll() {
		assert.Equal(t, model.ModeMedia, p.Mode)
		assert.Equal(t, "B", p.Track)
	}
	assert.Nil(t, e.Snapshot().Slot)
}

func TestEngine_OnChange(t *testing.T) {
	e, clock := newTestEngine(t)

	var got [][]model.Presentation
	e.OnChange(func(p []model.Presentation) { got = append(got, p) })

	e.Submit(model.SignalCapsLock, 1, 0)
	require.Len(t, got, 1)
	require.Len(t, got[0], 2)
	assert.Equal(t, "ephemeral(capslock)", got[0][0].Label())

	// Timer-driven changes notify too.
	clock.Advance(2 * time.Second)
	require.Len(t, got, 2)
	assert.Equal(t, "idle", got[1][0].Label())
}

func TestEngine_SubmitZeroDurationUsesConfig(t *testing.T) {
	e, _ := newTestEngine(t)

	slot := e.Submit(model.SignalFocusMode, 1, 0)
	assert.Equal(t, 2500*time.Millisecond, slot.ExpiresAt.Sub(slot.InstalledAt))
}

func TestEngine_SubmitNegativeDurationUsesConfig(t *testing.T) {
	e, clock := newTestEngine(t)

	slot := e.Submit(model.SignalVolume, 0.5, -time.Second)
	assert.Equal(t, 1500*time.Millisecond, slot.ExpiresAt.Sub(slot.InstalledAt))

	clock.Advance(time.Millisecond)
	require.NotNil(t, e.Snapshot().Slot)
}

func TestEngine_NaNValueKeepsStatusEncodable(t *testing.T) {
	e, _ := newTestEngine(t)

	slot := e.Submit(model.SignalVolume, math.NaN(), 0)
	assert.Equal(t, 0.0, slot.Value)

	_, err := json.Marshal(e.Status())
	assert.NoError(t, err)
}

func TestEngine_ContentHoverNotifies(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.RequestExpand("eDP-1"))

	changes := 0
	e.OnChange(func([]model.Presentation) { changes++ })

	e.SetContentHover("eDP-1", true)
	assert.Equal(t, 1, changes)
	assert.True(t, e.Snapshot().Tray.ContentHover)
	assert.True(t, e.Snapshot().Tray.Deadline.IsZero())

	// Repeats and non-owner reports change nothing.
	e.SetContentHover("eDP-1", true)
	e.SetContentHover("DP-2", false)
	assert.Equal(t, 1, changes)

	e.SetContentHover("eDP-1", false)
	assert.Equal(t, 2, changes)
	assert.False(t, e.Snapshot().Tray.Deadline.IsZero())
}

func TestEngine_EmptyingWithoutExpandedTrayKeepsHover(t *testing.T) {
	e, _ := newTestEngine(t)
	e.ItemsChanged(1, "")
	e.SetHover("DP-2", true)
	require.Equal(t, "hover-peek", labels(t, e)["DP-2"])

	e.ItemsChanged(0, "")
	assert.Equal(t, "hover-peek", labels(t, e)["DP-2"])
}

func TestEngine_EphemeralDropsHover(t *testing.T) {
	e, clock := newTestEngine(t)
	require.NoError(t, e.RequestExpand("eDP-1"))
	e.SetHover("eDP-1", true)
	assert.Equal(t, 0, clock.PendingCount())

	e.Submit(model.SignalVolume, 0.5, time.Second)
	snap := e.Snapshot()
	assert.Empty(t, snap.HoverOwner)
	// Losing hover re-arms the tray deadline.
	assert.False(t, snap.Tray.Deadline.IsZero())
}

func TestEngine_HoverAndDrag(t *testing.T) {
	e, _ := newTestEngine(t)

	e.SetHover("DP-2", true)
	assert.Equal(t, "hover-peek", labels(t, e)["DP-2"])
	e.SetHover("DP-2", false)
	assert.Equal(t, "hidden", labels(t, e)["DP-2"])

	e.SetHover("HDMI-A-9", true)
	assert.Empty(t, e.Snapshot().HoverOwner, "unknown displays cannot take hover")

	e.SetDragging("eDP-1", true)
	assert.Equal(t, "drag-peek", labels(t, e)["eDP-1"])
	e.SetDragging("DP-2", false)
	assert.Equal(t, "drag-peek", labels(t, e)["eDP-1"])
	e.SetDragging("eDP-1", false)
	assert.Equal(t, "idle", labels(t, e)["eDP-1"])
}

func TestEngine_UnknownDisplay(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.RequestExpand("HDMI-A-9")
	require.Error(t, err)
	var regErr *display.RegistryError
	assert.True(t, errors.As(err, &regErr))
	assert.Equal(t, model.DisplayID("HDMI-A-9"), regErr.Display)

	_, err = e.Resolve("HDMI-A-9")
	assert.Error(t, err)
	assert.Error(t, e.ToggleExpand("HDMI-A-9"))
}

func TestEngine_DisplayRemovalReleasesTray(t *testing.T) {
	e, clock := newTestEngine(t)
	require.NoError(t, e.RequestExpand("DP-2"))
	e.SetDragging("DP-2", true)

	e.SyncDisplays([]display.Monitor{{Connector: "eDP-1"}})
	snap := e.Snapshot()
	assert.Empty(t, snap.ExpandedOwner)
	assert.Empty(t, snap.DragOver)
	assert.Equal(t, 0, clock.PendingCount())
	assert.Len(t, e.ResolveAll(), 1)
}

func TestEngine_MediaGestures(t *testing.T) {
	e, clock := newTestEngine(t)
	assert.False(t, e.PinMedia())

	startMedia(t, e, clock, "A")
	e.HideMedia()
	assert.Equal(t, "idle", labels(t, e)["eDP-1"])
	assert.True(t, e.ToggleMedia())
	assert.Equal(t, "media", labels(t, e)["eDP-1"])
}

func TestEngine_UpdateConfigDisablesMedia(t *testing.T) {
	e, clock := newTestEngine(t)
	startMedia(t, e, clock, "A")

	cfg := config.DefaultDaemonConfig()
	cfg.Media.Enabled = false
	cfg.Display.DefaultStyle = "cutout"
	e.UpdateConfig(cfg)

	assert.Equal(t, MediaHidden, e.Snapshot().Media.Phase)
	assert.Equal(t, map[model.DisplayID]string{
		"eDP-1": "idle",
		"DP-2":  "idle",
	}, labels(t, e))
}

func TestEngine_MenuProbeOption(t *testing.T) {
	menu := &fakeMenu{open: true}
	e, clock := newTestEngine(t, WithMenuProbe(menu))
	require.NoError(t, e.RequestExpand("eDP-1"))

	clock.Advance(10 * time.Second)
	assert.Equal(t, model.DisplayID("eDP-1"), e.Snapshot().ExpandedOwner)
}

func TestEngine_InstallHook(t *testing.T) {
	var kinds []model.SignalKind
	e, _ := newTestEngine(t, WithInstallHook(func(s Slot) { kinds = append(kinds, s.Kind) }))

	e.Submit(model.SignalBattery, 0.1, 0)
	e.Submit(model.SignalAccessoryConnect, 1, 0)
	assert.Equal(t, []model.SignalKind{model.SignalBattery, model.SignalAccessoryConnect}, kinds)
}

func TestEngine_Status(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Submit(model.SignalScreenLock, 1, 0)

	st := e.Status()
	assert.Len(t, st.Displays, 2)
	assert.Len(t, st.Presentations, 2)
	require.NotNil(t, st.Snapshot.Slot)
	assert.Equal(t, model.SignalScreenLock, st.Snapshot.Slot.Kind)
}
