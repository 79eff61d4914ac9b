package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/sched"
)

// MediaPhase is the lifecycle phase of the now-playing presentation.
type MediaPhase int

const (
	MediaHidden MediaPhase = iota
	MediaDebounceArmed
	MediaVisible
	MediaFadedOut
)

// String returns the phase name.
func (p MediaPhase) String() string {
	switch p {
	case MediaHidden:
		return "hidden"
	case MediaDebounceArmed:
		return "debounce"
	case MediaVisible:
		return "visible"
	case MediaFadedOut:
		return "faded"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p MediaPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *MediaPhase) UnmarshalText(text []byte) error {
	for phase := MediaHidden; phase <= MediaFadedOut; phase++ {
		if phase.String() == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown media phase %q", text)
}

// MediaState is the observable state of the media controller.
type MediaState struct {
	Phase          MediaPhase `json:"phase" yaml:"phase"`
	Playing        bool       `json:"playing" yaml:"playing"`
	ForcedVisible  bool       `json:"forced_visible" yaml:"forced_visible"`
	UserHidden     bool       `json:"user_hidden" yaml:"user_hidden"`
	DebounceStable bool       `json:"debounce_stable" yaml:"debounce_stable"`
	Track          string     `json:"track,omitempty" yaml:"track,omitempty"`
	SuppressUntil  time.Time  `json:"suppress_until,omitempty" yaml:"suppress_until,omitempty"`
}

// Media owns now-playing visibility.
type Media struct {
	sched  sched.Scheduler
	cfg    func() config.MediaConfig
	logger *slog.Logger

	state MediaState

	debounce sched.Timer
	fade     sched.Timer
	suppress sched.Timer
	// Bumped whenever pending callbacks become stale.
	debounceGen uint64
	fadeGen     uint64
	suppressGen uint64

	onChange func()
}

// NewMedia creates a media controller reading its timings from cfg.
func NewMedia(s sched.Scheduler, cfg func() config.MediaConfig, logger *slog.Logger) *Media {
	if logger == nil {
		logger = slog.Default()
	}
	return &Media{sched: s, cfg: cfg, logger: logger}
}

// SetChangeCallback sets the function called when a timer changes visibility.
func (m *Media) SetChangeCallback(fn func()) {
	m.onChange = fn
}

// State returns a copy of the controller state.
func (m *Media) State() MediaState {
	return m.state
}

// Visible reports whether media should be presented right now. Suppression
// counts as hidden.
func (m *Media) Visible() bool {
	s := m.state
	if s.UserHidden || m.Suppressed() {
		return false
	}
	if s.ForcedVisible {
		return s.Playing || s.Track != ""
	}
	return s.Phase == MediaVisible
}

// Suppressed reports whether the track-change pulse is in progress.
func (m *Media) Suppressed() bool {
	return !m.state.SuppressUntil.IsZero() && m.sched.Now().Before(m.state.SuppressUntil)
}

// PlaybackChanged feeds a player update. trackKey identifies the current
// track, an empty key means unknown.
func (m *Media) PlaybackChanged(playing bool, trackKey string) {
	cfg := m.cfg()
	if !cfg.Enabled {
		return
	}

	switch {
	case playing && !m.state.Playing:
		m.start(cfg, trackKey)
	case !playing && m.state.Playing:
		m.stop()
	case playing && trackKey != m.state.Track:
		m.trackChanged(cfg, trackKey)
	case !playing && trackKey != "" && trackKey != m.state.Track:
		m.state.Track = trackKey
	}
}

func (m *Media) start(cfg config.MediaConfig, trackKey string) {
	m.cancelAll()
	m.state = MediaState{
		Phase:   MediaDebounceArmed,
		Playing: true,
		Track:   trackKey,
	}
	m.logger.Debug("media playback started", "track", trackKey)
	m.armDebounce(cfg)
}

func (m *Media) stop() {
	m.cancelAll()
	m.logger.Debug("media playback stopped")
	m.state = MediaState{Phase: MediaHidden, Track: m.state.Track}
}

func (m *Media) trackChanged(cfg config.MediaConfig, trackKey string) {
	m.state.Track = trackKey
	m.logger.Debug("media track changed", "track", trackKey, "phase", m.state.Phase)

	switch m.state.Phase {
	case MediaDebounceArmed:
		// Rapid skips keep the debounce window open.
		m.armDebounce(cfg)
	case MediaVisible, MediaFadedOut:
		m.state.Phase = MediaVisible
		m.armSuppress(cfg)
		m.armFade(cfg)
	}
}

func (m *Media) armDebounce(cfg config.MediaConfig) {
	sched.StopTimer(m.debounce)
	m.debounceGen++
	gen := m.debounceGen
	m.debounce = m.sched.AfterFunc(cfg.Debounce.Duration(), func() { m.debounceFired(gen) })
}

func (m *Media) debounceFired(gen uint64) {
	if gen != m.debounceGen || m.state.Phase != MediaDebounceArmed || !m.state.Playing {
		return
	}
	m.debounce = nil
	m.state.Phase = MediaVisible
	m.state.DebounceStable = true
	m.logger.Debug("media visible", "track", m.state.Track)
	m.armFade(m.cfg())
	m.changed()
}

func (m *Media) armFade(cfg config.MediaConfig) {
	sched.StopTimer(m.fade)
	m.fade = nil
	m.fadeGen++
	if !cfg.FadeEnabled {
		return
	}
	gen := m.fadeGen
	m.fade = m.sched.AfterFunc(cfg.FadeAfter.Duration(), func() { m.fadeFired(gen) })
}

func (m *Media) fadeFired(gen uint64) {
	if gen != m.fadeGen || m.state.Phase != MediaVisible || !m.state.Playing {
		return
	}
	m.fade = nil
	if m.state.ForcedVisible {
		return
	}
	m.state.Phase = MediaFadedOut
	m.logger.Debug("media faded out")
	m.changed()
}

func (m *Media) armSuppress(cfg config.MediaConfig) {
	sched.StopTimer(m.suppress)
	m.suppressGen++
	d := cfg.TrackSuppress.Duration()
	if d <= 0 {
		m.state.SuppressUntil = time.Time{}
		return
	}
	gen := m.suppressGen
	m.state.SuppressUntil = m.sched.Now().Add(d)
	m.suppress = m.sched.AfterFunc(d, func() { m.suppressFired(gen) })
}

func (m *Media) suppressFired(gen uint64) {
	if gen != m.suppressGen {
		return
	}
	m.suppress = nil
	m.state.SuppressUntil = time.Time{}
	m.changed()
}

func (m *Media) cancelAll() {
	sched.StopTimer(m.debounce)
	sched.StopTimer(m.fade)
	sched.StopTimer(m.suppress)
	m.debounce, m.fade, m.suppress = nil, nil, nil
	m.debounceGen++
	m.fadeGen++
	m.suppressGen++
}

// Pin forces media visible until the next stopped-to-playing transition.
// A faded presentation comes back. Returns false if there is no track.
func (m *Media) Pin() bool {
	if m.state.Track == "" && !m.state.Playing {
		return false
	}
	m.state.ForcedVisible = true
	m.state.UserHidden = false
	if m.state.Phase == MediaFadedOut {
		m.state.Phase = MediaVisible
	}
	m.logger.Debug("media pinned")
	return true
}

// Hide hides media until the next stopped-to-playing transition.
func (m *Media) Hide() {
	m.state.UserHidden = true
	m.state.ForcedVisible = false
	m.logger.Debug("media hidden by user")
}

// Toggle pins hidden media and hides visible media.
func (m *Media) Toggle() bool {
	if m.Visible() {
		m.Hide()
		return true
	}
	return m.Pin()
}

// Reset returns to Hidden and cancels timers, used when media is disabled.
func (m *Media) Reset() {
	m.cancelAll()
	m.state = MediaState{Phase: MediaHidden}
}

func (m *Media) changed() {
	if m.onChange != nil {
		m.onChange()
	}
}
