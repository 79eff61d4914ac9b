package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/dbus"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
	"github.com/jmylchreest/notchd/internal/store"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testMonitors() []display.Monitor {
	return []display.Monitor{
		{Connector: "eDP-1", Name: "Built-in", MeasuredCutout: &model.Size{Width: 185, Height: 32}},
		{Connector: "HDMI-A-1", Name: "External"},
	}
}

func newTestDaemon(t *testing.T, cfg *config.DaemonConfig) (*Daemon, *sched.Manual, string) {
	t.Helper()
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	m := sched.NewManual(epoch)
	d := New(m, cfg, Options{
		ConfigPath: filepath.Join(dir, "notchd.toml"),
		StatePath:  statePath,
		NoBus:      true,
	}, nil)
	return d, m, statePath
}

func TestDaemon_AppliesPersistedStyles(t *testing.T) {
	d, m, statePath := newTestDaemon(t, nil)

	state := store.DefaultSharedState()
	state.SetDisplayStyle("eDP-1", model.StylePreferencePill)
	require.NoError(t, store.SaveSharedStateTo(state, statePath))

	d.Engine().SyncDisplays(testMonitors())
	disp, ok := d.Engine().Registry().Get("eDP-1")
	require.True(t, ok)
	assert.Equal(t, model.StyleCutout, disp.Style)

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()
	m.Flush()

	disp, ok = d.Engine().Registry().Get("eDP-1")
	require.True(t, ok)
	assert.Equal(t, model.StylePill, disp.Style)
}

func TestDaemon_PublishesOnlyLabelChanges(t *testing.T) {
	d, m, _ := newTestDaemon(t, nil)

	var published []string
	d.publish = func(p model.Presentation) error {
		published = append(published, string(p.Display)+":"+p.Label())
		return nil
	}

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()
	m.Flush()

	d.Engine().SyncDisplays(testMonitors())
	assert.Len(t, published, 2)

	d.Engine().Submit(model.SignalVolume, 0.5, 0)
	assert.Len(t, published, 4)
	assert.Contains(t, published, "eDP-1:ephemeral(volume)")

	// Same kind again keeps the label.
	d.Engine().Submit(model.SignalVolume, 0.6, 0)
	assert.Len(t, published, 4)

	m.Advance(2 * time.Second)
	assert.Len(t, published, 6)
}

func TestDaemon_PublishErrorIsNotFatal(t *testing.T) {
	d, m, _ := newTestDaemon(t, nil)
	calls := 0
	d.publish = func(model.Presentation) error {
		calls++
		return errors.New("not connected")
	}

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()
	m.Flush()

	d.Engine().SyncDisplays(testMonitors())
	assert.Equal(t, 2, calls)
}

func TestDaemon_DispatcherFeedsEngine(t *testing.T) {
	d, m, _ := newTestDaemon(t, nil)
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()
	d.Engine().SyncDisplays(testMonitors())

	d.Dispatcher().Emit(model.Signal{Kind: model.SignalBattery, Value: 0.15})
	d.Dispatcher().Emit(model.Signal{Kind: model.SignalVolume, Value: 0.4})
	m.Flush()

	slot := d.Engine().Snapshot().Slot
	require.NotNil(t, slot)
	assert.Equal(t, model.SignalVolume, slot.Kind)
}

func TestDaemon_FocusSignalGatedByConfig(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
	}{
		{"enabled", true},
		{"disabled", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultDaemonConfig()
			cfg.Monitors.Focus = tt.enabled
			d, m, _ := newTestDaemon(t, cfg)
			d.Engine().SyncDisplays(testMonitors())

			d.emitFocus(model.Signal{Kind: model.SignalFocusMode, Value: 1})
			m.Flush()

			slot := d.Engine().Snapshot().Slot
			if tt.enabled {
				require.NotNil(t, slot)
				assert.Equal(t, model.SignalFocusMode, slot.Kind)
			} else {
				assert.Nil(t, slot)
			}
		})
	}
}

func TestDaemon_ApplyConfig(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)

	var got *config.DaemonConfig
	d.OnConfigChange(func(cfg *config.DaemonConfig) { got = cfg })

	var sent []*dbus.Notification
	d.Notifier().SetSendFunc(func(n *dbus.Notification) uint32 {
		sent = append(sent, n)
		return 1
	})

	cfg := config.DefaultDaemonConfig()
	cfg.Tray.CollapseDelay = config.Duration(7 * time.Second)
	d.applyConfig(cfg)

	assert.Same(t, cfg, got)
	assert.Same(t, cfg, d.Engine().Config())
	require.Len(t, sent, 1)
	assert.Equal(t, "Configuration Reloaded", sent[0].Summary)
}

func newHeadlessDaemon(t *testing.T, cfg *config.DaemonConfig, displays ...string) (*Daemon, *sched.Manual) {
	t.Helper()
	dir := t.TempDir()
	m := sched.NewManual(epoch)
	d := New(m, cfg, Options{
		ConfigPath: filepath.Join(dir, "notchd.toml"),
		StatePath:  filepath.Join(dir, "state.json"),
		NoBus:      true,
		Headless:   true,
		Displays:   displays,
	}, nil)
	return d, m
}

func TestDaemon_HeadlessRegistersOverrides(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	cfg.Display.Overrides = []config.DisplayOverride{{Connector: "eDP-1", Cutout: true}}
	d, m := newHeadlessDaemon(t, cfg)

	var published []string
	d.publish = func(p model.Presentation) error {
		published = append(published, string(p.Display)+":"+p.Label())
		return nil
	}

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()
	m.Flush()

	presentations := d.Engine().ResolveAll()
	require.Len(t, presentations, 1)
	assert.Equal(t, model.DisplayID("eDP-1"), presentations[0].Display)
	assert.Equal(t, []string{"eDP-1:idle"}, published)

	require.NoError(t, d.Engine().RequestExpand("eDP-1"))
	assert.Equal(t, "expanded", d.Engine().ResolveAll()[0].Label())
}

func TestDaemon_HeadlessExtraDisplaysAndReload(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	cfg.Display.Overrides = []config.DisplayOverride{{Connector: "eDP-1", Cutout: true}}
	d, m := newHeadlessDaemon(t, cfg, "DP-2")

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()
	m.Flush()
	assert.Equal(t, 2, d.Engine().Registry().Count())

	reloaded := config.DefaultDaemonConfig()
	reloaded.Display.Overrides = []config.DisplayOverride{{Connector: "HDMI-A-1"}}
	d.applyConfig(reloaded)

	_, ok := d.Engine().Registry().Get("eDP-1")
	assert.False(t, ok)
	_, ok = d.Engine().Registry().Get("HDMI-A-1")
	assert.True(t, ok)
	assert.Equal(t, 2, d.Engine().Registry().Count())
}

func TestStaticMonitors(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	cfg.Display.Overrides = []config.DisplayOverride{{Connector: "eDP-1"}, {Connector: "DP-2"}}

	monitors := StaticMonitors(cfg, []string{"DP-2", "", "HDMI-A-1"})
	connectors := make([]string, len(monitors))
	for i, m := range monitors {
		connectors[i] = m.Connector
	}
	assert.Equal(t, []string{"eDP-1", "DP-2", "HDMI-A-1"}, connectors)
	assert.Empty(t, StaticMonitors(config.DefaultDaemonConfig(), nil))
}

func TestDaemon_StartTwice(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()
	assert.Error(t, d.Start(context.Background()))
}

func TestDaemon_StopIdempotent(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)
	require.NoError(t, d.Start(context.Background()))
	d.Stop()
	d.Stop()
}

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notchd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tray]\ncollapse_delay = \"3s\"\n"), 0600))

	w := NewConfigWatcher(path, nil)
	w.SetPollInterval(10 * time.Millisecond)

	var mu sync.Mutex
	var reloaded *config.DaemonConfig
	w.SetReloadCallback(func(cfg *config.DaemonConfig) {
		mu.Lock()
		defer mu.Unlock()
		reloaded = cfg
	})

	initial := config.DefaultDaemonConfig()
	require.NoError(t, w.Start(context.Background(), initial))
	defer w.Stop()
	assert.Same(t, initial, w.Current())

	require.NoError(t, os.WriteFile(path, []byte("[tray]\ncollapse_delay = \"4s\"\n"), 0600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 4*time.Second, w.Current().Tray.CollapseDelay.Duration())
}

func TestConfigWatcher_InvalidConfigKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notchd.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0600))

	w := NewConfigWatcher(path, nil)
	w.SetPollInterval(10 * time.Millisecond)

	errCh := make(chan error, 1)
	w.SetErrorCallback(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})
	w.SetReloadCallback(func(*config.DaemonConfig) {
		t.Error("invalid config must not reload")
	})

	initial := config.DefaultDaemonConfig()
	require.NoError(t, w.Start(context.Background(), initial))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[display]\ncutout_width = 5\n"), 0600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case err := <-errCh:
		assert.Contains(t, err.Error(), "cutout_width")
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error callback")
	}
	assert.Same(t, initial, w.Current())
}

func TestConfigWatcher_StopIdempotent(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "missing.toml"), nil)
	w.Stop()
	require.NoError(t, w.Start(context.Background(), nil))
	w.Stop()
	w.Stop()
}
