package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

type fakeMenu struct{ open bool }

func (f *fakeMenu) MenuOpen() bool { return f.open }

func newTestTray() (*Tray, *Ownership, *sched.Manual, *fakeMenu) {
	cfg := config.DefaultDaemonConfig().Tray
	clock := sched.NewManual(epoch)
	own := &Ownership{}
	menu := &fakeMenu{}
	tr := NewTray(clock, func() config.TrayConfig { return cfg }, own, nil)
	tr.SetMenuProbe(menu)
	tr.SetDisplayCheck(func(d model.DisplayID) bool { return d != "gone" })
	return tr, own, clock, menu
}

func TestTray_AutoCollapse(t *testing.T) {
	tr, own, clock, _ := newTestTray()
	collapsed := 0
	tr.SetChangeCallback(func() { collapsed++ })

	tr.RequestExpand("eDP-1")
	assert.Equal(t, epoch.Add(3*time.Second), tr.State().Deadline)

	clock.Advance(2900 * time.Millisecond)
	assert.True(t, own.IsExpanded("eDP-1"))

	clock.Advance(100 * time.Millisecond)
	_, ok := own.ExpandedOwner()
	assert.False(t, ok)
	assert.Equal(t, 1, collapsed)
	assert.True(t, tr.State().Deadline.IsZero())
}

func TestTray_LongerDelayWithItems(t *testing.T) {
	tr, own, clock, _ := newTestTray()
	tr.ItemsChanged(2, "")
	tr.RequestExpand("eDP-1")

	clock.Advance(3 * time.Second)
	assert.True(t, own.IsExpanded("eDP-1"))
	clock.Advance(2 * time.Second)
	assert.False(t, own.IsExpanded("eDP-1"))
}

func TestTray_HoverHoldsOpen(t *testing.T) {
	tr, own, clock, _ := newTestTray()
	tr.RequestExpand("eDP-1")

	own.setHover("eDP-1", true)
	tr.HoverChanged()
	assert.Equal(t, 0, clock.PendingCount())

	clock.Advance(time.Minute)
	assert.True(t, own.IsExpanded("eDP-1"))

	own.setHover("eDP-1", false)
	tr.HoverChanged()
	assert.Equal(t, clock.Now().Add(3*time.Second), tr.State().Deadline)
	clock.Advance(3 * time.Second)
	assert.False(t, own.IsExpanded("eDP-1"))
}

func TestTray_HoverOnOtherDisplayDoesNotHold(t *testing.T) {
	tr, own, clock, _ := newTestTray()
	tr.RequestExpand("eDP-1")
	own.setHover("DP-2", true)
	tr.HoverChanged()

	clock.Advance(3 * time.Second)
	assert.False(t, own.IsExpanded("eDP-1"))
}

func TestTray_ContentHover(t *testing.T) {
	tr, own, clock, _ := newTestTray()
	tr.RequestExpand("eDP-1")

	tr.SetContentHover("DP-2", true)
	assert.False(t, tr.State().ContentHover, "non-owner reports are ignored")

	tr.SetContentHover("eDP-1", true)
	assert.True(t, tr.State().ContentHover)
	clock.Advance(time.Minute)
	assert.True(t, own.IsExpanded("eDP-1"))

	tr.SetContentHover("eDP-1", false)
	clock.Advance(3 * time.Second)
	assert.False(t, own.IsExpanded("eDP-1"))
}

func TestTray_MenuCheckedAtFireTime(t *testing.T) {
	tr, own, clock, menu := newTestTray()
	tr.RequestExpand("eDP-1")

	// Menu opens after the deadline was armed.
	clock.Advance(time.Second)
	menu.open = true
	clock.Advance(2 * time.Second)
	assert.True(t, own.IsExpanded("eDP-1"))
	assert.Equal(t, clock.Now().Add(3*time.Second), tr.State().Deadline)

	menu.open = false
	clock.Advance(3 * time.Second)
	assert.False(t, own.IsExpanded("eDP-1"))
}

func TestTray_ReexpandLeavesOneTimer(t *testing.T) {
	tr, own, clock, _ := newTestTray()

	tr.RequestExpand("eDP-1")
	clock.Advance(time.Second)
	tr.Collapse()
	tr.RequestExpand("eDP-1")

	assert.Equal(t, 1, clock.PendingCount())
	second := epoch.Add(time.Second)
	assert.Equal(t, second.Add(3*time.Second), tr.State().Deadline)

	// The first deadline passes harmlessly.
	clock.Advance(2 * time.Second)
	assert.True(t, own.IsExpanded("eDP-1"))
	clock.Advance(time.Second)
	assert.False(t, own.IsExpanded("eDP-1"))
}

func TestTray_StaleCallbackIgnored(t *testing.T) {
	tr, own, _, _ := newTestTray()
	tr.RequestExpand("eDP-1")
	staleGen := tr.gen
	tr.RequestExpand("DP-2")

	tr.collapseFired("eDP-1", staleGen)
	tr.collapseFired("DP-2", staleGen)
	assert.True(t, own.IsExpanded("DP-2"))
}

func TestTray_EmptyingCollapses(t *testing.T) {
	tr, own, clock, _ := newTestTray()
	tr.ItemsChanged(3, "eDP-1")
	require.True(t, own.IsExpanded("eDP-1"))

	tr.ItemsChanged(0, "")
	_, ok := own.ExpandedOwner()
	assert.False(t, ok)
	assert.Equal(t, 0, clock.PendingCount())
}

func TestTray_EmptyingWithoutOwnerKeepsHover(t *testing.T) {
	tr, own, _, _ := newTestTray()
	tr.ItemsChanged(2, "")
	own.setHover("DP-2", true)

	tr.ItemsChanged(0, "")
	assert.True(t, own.IsHovered("DP-2"))
	assert.Equal(t, 0, tr.Items())
}

func TestTray_SetContentHoverReportsChange(t *testing.T) {
	tr, _, _, _ := newTestTray()
	assert.False(t, tr.SetContentHover("eDP-1", true), "nothing expanded")

	tr.RequestExpand("eDP-1")
	assert.True(t, tr.SetContentHover("eDP-1", true))
	assert.False(t, tr.SetContentHover("eDP-1", true))
	assert.True(t, tr.SetContentHover("eDP-1", false))
}

func TestTray_DropSiteAffinity(t *testing.T) {
	tr, own, _, _ := newTestTray()
	tr.RequestExpand("eDP-1")

	tr.ItemsChanged(1, "DP-2")
	assert.True(t, own.IsExpanded("DP-2"))
	assert.False(t, own.IsExpanded("eDP-1"))

	// Growing a non-empty tray does not move it.
	tr.ItemsChanged(2, "eDP-1")
	assert.True(t, own.IsExpanded("DP-2"))
}

func TestTray_DropSiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		site     model.DisplayID
		menuOpen bool
	}{
		{name: "menu open", site: "DP-2", menuOpen: true},
		{name: "unknown display", site: "gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, own, _, menu := newTestTray()
			tr.RequestExpand("eDP-1")
			menu.open = tt.menuOpen

			tr.ItemsChanged(1, tt.site)
			assert.True(t, own.IsExpanded("eDP-1"))
		})
	}
}

func TestTray_ItemChangeRearmsWithNewDelay(t *testing.T) {
	tr, own, clock, _ := newTestTray()
	tr.RequestExpand("eDP-1")
	clock.Advance(time.Second)

	tr.ItemsChanged(1, "eDP-1")
	assert.Equal(t, clock.Now().Add(5*time.Second), tr.State().Deadline)
	clock.Advance(4 * time.Second)
	assert.True(t, own.IsExpanded("eDP-1"))
}

func TestTray_ToggleAndForget(t *testing.T) {
	tr, own, clock, _ := newTestTray()

	tr.ToggleExpand("eDP-1")
	assert.True(t, own.IsExpanded("eDP-1"))
	tr.ToggleExpand("eDP-1")
	assert.False(t, own.IsExpanded("eDP-1"))

	tr.ToggleExpand("DP-2")
	assert.True(t, tr.Forget("DP-2"))
	assert.False(t, own.IsExpanded("DP-2"))
	assert.Equal(t, 0, clock.PendingCount())
	assert.False(t, tr.Collapse())
}
