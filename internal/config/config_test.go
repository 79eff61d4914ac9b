package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/model"
)

func TestDefaultDaemonConfig(t *testing.T) {
	cfg := DefaultDaemonConfig()

	assert.Equal(t, "auto", cfg.Display.DefaultStyle)
	assert.Equal(t, 185, cfg.Display.CutoutWidth)
	assert.Equal(t, time.Second, cfg.Media.Debounce.Duration())
	assert.Equal(t, 5*time.Second, cfg.Media.FadeAfter.Duration())
	assert.Equal(t, 300*time.Millisecond, cfg.Media.TrackSuppress.Duration())
	assert.Equal(t, 3*time.Second, cfg.Tray.CollapseDelay.Duration())
	assert.Equal(t, 5*time.Second, cfg.Tray.CollapseDelayItems.Duration())
	assert.False(t, cfg.Audio.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadDaemonConfigFrom_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadDaemonConfigFrom("/nonexistent/path/notchd.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultDaemonConfig().Tray, cfg.Tray)
}

func TestLoadDaemonConfigFrom_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notchd.toml")

	content := `
[display]
default_style = "pill"

[[display.overrides]]
connector = "eDP-1"
cutout = true
cutout_width = 200
cutout_height = 34

[media]
debounce = "500ms"
fade_after = "8000"

[tray]
collapse_delay = "1s"

[ephemeral]
battery = "4s"

[geometry.ephemeral_wings]
battery = 50

[audio]
enabled = true

[audio.sounds]
accessory = "~/sounds/connect.ogg"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadDaemonConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "pill", cfg.Display.DefaultStyle)
	o, ok := cfg.Display.Override("eDP-1")
	require.True(t, ok)
	assert.True(t, o.Cutout)
	assert.Equal(t, 200, o.CutoutWidth)
	_, ok = cfg.Display.Override("HDMI-A-1")
	assert.False(t, ok)

	assert.Equal(t, 500*time.Millisecond, cfg.Media.Debounce.Duration())
	assert.Equal(t, 8*time.Second, cfg.Media.FadeAfter.Duration())
	assert.Equal(t, time.Second, cfg.Tray.CollapseDelay.Duration())
	// Untouched values keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Tray.CollapseDelayItems.Duration())
	assert.Equal(t, 4*time.Second, cfg.Ephemeral.DurationFor(model.SignalBattery))
	assert.Equal(t, 50, cfg.Geometry.WingFor(model.SignalBattery))
	assert.Equal(t, cfg.Geometry.EphemeralWing, cfg.Geometry.WingFor(model.SignalScreenLock))
	assert.True(t, cfg.Audio.Enabled)
}

func TestLoadDaemonConfigFrom_InvalidFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notchd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[display]\ndefault_style = \"round\"\n"), 0644))

	_, err := LoadDaemonConfigFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *DaemonConfig)
		errMsg string
	}{
		{"valid defaults", func(c *DaemonConfig) {}, ""},
		{"bad style", func(c *DaemonConfig) { c.Display.DefaultStyle = "square" }, "default_style"},
		{"tiny cutout", func(c *DaemonConfig) { c.Display.CutoutWidth = 10 }, "cutout_width"},
		{"override without connector", func(c *DaemonConfig) {
			c.Display.Overrides = []DisplayOverride{{Cutout: true}}
		}, "missing a connector"},
		{"duplicate override", func(c *DaemonConfig) {
			c.Display.Overrides = []DisplayOverride{{Connector: "eDP-1"}, {Connector: "eDP-1"}}
		}, "duplicate"},
		{"zero collapse delay", func(c *DaemonConfig) { c.Tray.CollapseDelay = 0 }, "collapse delays"},
		{"fade without window", func(c *DaemonConfig) { c.Media.FadeAfter = 0 }, "fade_after"},
		{"zero ephemeral", func(c *DaemonConfig) { c.Ephemeral.CapsLock = 0 }, "ephemeral.capslock"},
		{"unknown wing kind", func(c *DaemonConfig) { c.Geometry.EphemeralWings["mute"] = 3 }, "ephemeral_wings"},
		{"radius order", func(c *DaemonConfig) { c.Geometry.Radius.Idle = 40 }, "radius"},
		{"volume range", func(c *DaemonConfig) { c.Audio.Volume = 101 }, "volume"},
		{"unknown sound kind", func(c *DaemonConfig) { c.Audio.Sounds["chime"] = "x.wav" }, "audio.sounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDaemonConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"300ms", 300 * time.Millisecond, false},
		{"5s", 5 * time.Second, false},
		{"1500", 1500 * time.Millisecond, false},
		{"0", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestSaveDaemonConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notchd.toml")

	cfg := DefaultDaemonConfig()
	cfg.Tray.CollapseDelay = Duration(2 * time.Second)
	require.NoError(t, SaveDaemonConfig(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, toml.Unmarshal(data, &raw))

	loaded, err := LoadDaemonConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, loaded.Tray.CollapseDelay.Duration())
}

func TestPaths_UseXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	assert.Equal(t, "/tmp/xdg-data/notchd", DataPath())
	assert.Equal(t, "/tmp/xdg-data/notchd/state.json", StatePath())
	assert.Equal(t, "/tmp/xdg-config/notchd/themes", ThemesDir())
}

func TestGetSoundForKind_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultDaemonConfig()
	cfg.Audio.Sounds["battery"] = "~/sounds/plug.wav"
	assert.Equal(t, filepath.Join(home, "sounds", "plug.wav"), cfg.GetSoundForKind(model.SignalBattery))
	assert.Equal(t, "", cfg.GetSoundForKind(model.SignalVolume))
}
