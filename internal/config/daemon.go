package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/notchd/internal/model"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "300ms", "5s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Integer milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '300ms', '5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for notchd.
// Loaded from ~/.config/notchd/notchd.toml
type DaemonConfig struct {
	Display   DisplayConfig   `toml:"display"`
	Media     MediaConfig     `toml:"media"`
	Tray      TrayConfig      `toml:"tray"`
	Ephemeral EphemeralConfig `toml:"ephemeral"`
	Geometry  GeometryConfig  `toml:"geometry"`
	Monitors  MonitorsConfig  `toml:"monitors"`
	Audio     AudioConfig     `toml:"audio"`
	Theme     ThemeConfig     `toml:"theme"`
}

// DisplayConfig contains display classification settings.
type DisplayConfig struct {
	DefaultStyle string            `toml:"default_style"` // "auto", "cutout", "pill"
	CutoutWidth  int               `toml:"cutout_width"`  // Default cutout extent when not measured
	CutoutHeight int               `toml:"cutout_height"`
	Overrides    []DisplayOverride `toml:"overrides"`
}

// DisplayOverride declares capability and preference for one connector.
// Linux does not report camera housings, so cutouts are declared here.
type DisplayOverride struct {
	Connector    string `toml:"connector"`
	Cutout       bool   `toml:"cutout"`
	CutoutWidth  int    `toml:"cutout_width"`
	CutoutHeight int    `toml:"cutout_height"`
	Style        string `toml:"style"`
}

// MediaConfig contains now-playing presentation timings.
type MediaConfig struct {
	Enabled       bool     `toml:"enabled"`
	Debounce      Duration `toml:"debounce"`       // Stabilization window after playback starts
	FadeEnabled   bool     `toml:"fade_enabled"`   // Hide after inactivity while playing
	FadeAfter     Duration `toml:"fade_after"`     // Inactivity window
	TrackSuppress Duration `toml:"track_suppress"` // Collapse pulse on track change
}

// TrayConfig contains expanded tray timings.
type TrayConfig struct {
	CollapseDelay      Duration `toml:"collapse_delay"`       // Auto-collapse when the tray is empty
	CollapseDelayItems Duration `toml:"collapse_delay_items"` // Auto-collapse when the tray holds items
}

// EphemeralConfig contains default visible durations per signal kind.
type EphemeralConfig struct {
	Volume     Duration `toml:"volume"`
	Brightness Duration `toml:"brightness"`
	Battery    Duration `toml:"battery"`
	CapsLock   Duration `toml:"capslock"`
	Focus      Duration `toml:"focus"`
	Accessory  Duration `toml:"accessory"`
	ScreenLock Duration `toml:"screenlock"`
}

// GeometryConfig contains fixed pixel budgets per mode.
type GeometryConfig struct {
	HoverMargin    int            `toml:"hover_margin"`    // Wing added on each side for hover/drag peek
	PeekLift       int            `toml:"peek_lift"`       // Extra height on cutout style peek
	EphemeralWing  int            `toml:"ephemeral_wing"`  // Default wing for ephemeral overlays
	EphemeralWings map[string]int `toml:"ephemeral_wings"` // Per-kind wing overrides
	MediaWing      int            `toml:"media_wing"`
	MediaHeight    int            `toml:"media_height"`
	ExpandedWing   int            `toml:"expanded_wing"`
	ExpandedWidth  int            `toml:"expanded_width"` // Content width of the tray
	HeaderHeight   int            `toml:"header_height"`
	RowHeight      int            `toml:"row_height"`
	ItemsPerRow    int            `toml:"items_per_row"`
	Radius         RadiusConfig   `toml:"radius"`
}

// RadiusConfig contains corner radii per mode weight.
type RadiusConfig struct {
	Idle      int `toml:"idle"`
	Peek      int `toml:"peek"`
	Ephemeral int `toml:"ephemeral"`
	Media     int `toml:"media"`
	Expanded  int `toml:"expanded"`
}

// MonitorsConfig toggles the built-in signal sources.
type MonitorsConfig struct {
	Battery    bool `toml:"battery"`
	Accessory  bool `toml:"accessory"`
	ScreenLock bool `toml:"screen_lock"`
	Playback   bool `toml:"playback"`
	Focus      bool `toml:"focus"`
}

// AudioConfig contains sound cue settings.
type AudioConfig struct {
	Enabled bool              `toml:"enabled"`
	Volume  int               `toml:"volume"` // 0-100
	Sounds  map[string]string `toml:"sounds"` // Signal kind name -> sound file
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name string `toml:"name"` // Theme name without .css extension
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Display: DisplayConfig{
			DefaultStyle: string(model.StylePreferenceAuto),
			CutoutWidth:  185,
			CutoutHeight: 32,
		},
		Media: MediaConfig{
			Enabled:       true,
			Debounce:      Duration(time.Second),
			FadeEnabled:   true,
			FadeAfter:     Duration(5 * time.Second),
			TrackSuppress: Duration(300 * time.Millisecond),
		},
		Tray: TrayConfig{
			CollapseDelay:      Duration(3 * time.Second),
			CollapseDelayItems: Duration(5 * time.Second),
		},
		Ephemeral: EphemeralConfig{
			Volume:     Duration(1500 * time.Millisecond),
			Brightness: Duration(1500 * time.Millisecond),
			Battery:    Duration(3 * time.Second),
			CapsLock:   Duration(2 * time.Second),
			Focus:      Duration(2500 * time.Millisecond),
			Accessory:  Duration(3 * time.Second),
			ScreenLock: Duration(2 * time.Second),
		},
		Geometry: GeometryConfig{
			HoverMargin:    12,
			PeekLift:       6,
			EphemeralWing:  44,
			EphemeralWings: map[string]int{"volume": 72, "brightness": 72},
			MediaWing:      60,
			MediaHeight:    38,
			ExpandedWing:   24,
			ExpandedWidth:  480,
			HeaderHeight:   44,
			RowHeight:      72,
			ItemsPerRow:    5,
			Radius: RadiusConfig{
				Idle:      8,
				Peek:      10,
				Ephemeral: 14,
				Media:     16,
				Expanded:  24,
			},
		},
		Monitors: MonitorsConfig{
			Battery:    true,
			Accessory:  true,
			ScreenLock: true,
			Playback:   true,
			Focus:      true,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
			Sounds:  map[string]string{},
		},
		Theme: ThemeConfig{
			Name: "default",
		},
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName, "notchd.toml"), nil
}

// LoadDaemonConfig loads the daemon configuration from the default path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig() (*DaemonConfig, error) {
	path, err := DaemonConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadDaemonConfigFrom(path)
}

// LoadDaemonConfigFrom loads the daemon configuration from path.
func LoadDaemonConfigFrom(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig saves the daemon configuration to path.
func SaveDaemonConfig(config *DaemonConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if _, err := model.ParseStylePreference(c.Display.DefaultStyle); err != nil {
		return fmt.Errorf("display.default_style: %w", err)
	}
	if c.Display.CutoutWidth < 40 || c.Display.CutoutWidth > 800 {
		return fmt.Errorf("cutout_width must be between 40 and 800, got %d", c.Display.CutoutWidth)
	}
	if c.Display.CutoutHeight < 16 || c.Display.CutoutHeight > 120 {
		return fmt.Errorf("cutout_height must be between 16 and 120, got %d", c.Display.CutoutHeight)
	}

	seen := make(map[string]bool, len(c.Display.Overrides))
	for _, o := range c.Display.Overrides {
		if o.Connector == "" {
			return fmt.Errorf("display override is missing a connector")
		}
		if seen[o.Connector] {
			return fmt.Errorf("duplicate display override for %q", o.Connector)
		}
		seen[o.Connector] = true
		if _, err := model.ParseStylePreference(o.Style); err != nil {
			return fmt.Errorf("display override %q: %w", o.Connector, err)
		}
		if o.CutoutWidth < 0 || o.CutoutHeight < 0 {
			return fmt.Errorf("display override %q: cutout size must not be negative", o.Connector)
		}
	}

	if c.Media.Debounce < 0 || c.Media.FadeAfter < 0 || c.Media.TrackSuppress < 0 {
		return fmt.Errorf("media durations must not be negative")
	}
	if c.Media.FadeEnabled && c.Media.FadeAfter == 0 {
		return fmt.Errorf("media.fade_after must be positive when fade is enabled")
	}
	if c.Tray.CollapseDelay <= 0 || c.Tray.CollapseDelayItems <= 0 {
		return fmt.Errorf("tray collapse delays must be positive")
	}

	for _, kind := range model.AllSignalKinds() {
		if c.Ephemeral.DurationFor(kind) <= 0 {
			return fmt.Errorf("ephemeral.%s must be positive", kind)
		}
	}

	for name, wing := range c.Geometry.EphemeralWings {
		if _, err := model.ParseSignalKind(name); err != nil {
			return fmt.Errorf("geometry.ephemeral_wings: %w", err)
		}
		if wing < 0 {
			return fmt.Errorf("geometry.ephemeral_wings.%s must not be negative", name)
		}
	}
	if c.Geometry.ItemsPerRow < 1 {
		return fmt.Errorf("geometry.items_per_row must be at least 1, got %d", c.Geometry.ItemsPerRow)
	}
	r := c.Geometry.Radius
	if !(r.Idle <= r.Peek && r.Peek <= r.Ephemeral && r.Ephemeral <= r.Media && r.Media <= r.Expanded) {
		return fmt.Errorf("geometry.radius must increase from idle to expanded")
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}
	for name := range c.Audio.Sounds {
		if _, err := model.ParseSignalKind(name); err != nil {
			return fmt.Errorf("audio.sounds: %w", err)
		}
	}

	return nil
}

// DurationFor returns the default visible duration for kind.
func (e EphemeralConfig) DurationFor(kind model.SignalKind) time.Duration {
	switch kind {
	case model.SignalVolume:
		return e.Volume.Duration()
	case model.SignalBrightness:
		return e.Brightness.Duration()
	case model.SignalBattery:
		return e.Battery.Duration()
	case model.SignalCapsLock:
		return e.CapsLock.Duration()
	case model.SignalFocusMode:
		return e.Focus.Duration()
	case model.SignalAccessoryConnect:
		return e.Accessory.Duration()
	case model.SignalScreenLock:
		return e.ScreenLock.Duration()
	default:
		return e.Battery.Duration()
	}
}

// WingFor returns the fixed wing width for an ephemeral overlay of kind.
func (g GeometryConfig) WingFor(kind model.SignalKind) int {
	if wing, ok := g.EphemeralWings[kind.String()]; ok {
		return wing
	}
	return g.EphemeralWing
}

// Override returns the display override for connector, if any.
func (d DisplayConfig) Override(connector string) (DisplayOverride, bool) {
	for _, o := range d.Overrides {
		if o.Connector == connector {
			return o, true
		}
	}
	return DisplayOverride{}, false
}

// GetSoundForKind returns the sound file path for kind.
// Expands ~ to home directory.
func (c *DaemonConfig) GetSoundForKind(kind model.SignalKind) string {
	return expandPath(c.Audio.Sounds[kind.String()])
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
