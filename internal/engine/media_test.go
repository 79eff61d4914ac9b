package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/sched"
)

func newTestMedia(mutate ...func(*config.MediaConfig)) (*Media, *sched.Manual) {
	cfg := config.DefaultDaemonConfig().Media
	for _, fn := range mutate {
		fn(&cfg)
	}
	clock := sched.NewManual(epoch)
	return NewMedia(clock, func() config.MediaConfig { return cfg }, nil), clock
}

// playVisible starts playback and waits out the debounce window.
func playVisible(t *testing.T, m *Media, clock *sched.Manual, track string) {
	t.Helper()
	m.PlaybackChanged(true, track)
	clock.Advance(time.Second)
	require.Equal(t, MediaVisible, m.State().Phase)
	require.True(t, m.Visible())
}

func TestMedia_DebounceThenVisible(t *testing.T) {
	m, clock := newTestMedia()
	changes := 0
	m.SetChangeCallback(func() { changes++ })

	m.PlaybackChanged(true, "artist - one")
	assert.Equal(t, MediaDebounceArmed, m.State().Phase)
	assert.False(t, m.Visible())

	clock.Advance(999 * time.Millisecond)
	assert.False(t, m.Visible())

	clock.Advance(time.Millisecond)
	assert.True(t, m.Visible())
	assert.True(t, m.State().DebounceStable)
	assert.Equal(t, 1, changes)
}

func TestMedia_StopWithinDebounceNeverShows(t *testing.T) {
	m, clock := newTestMedia()
	m.SetChangeCallback(func() {
		assert.NotEqual(t, MediaVisible, m.State().Phase)
	})

	m.PlaybackChanged(true, "one")
	clock.Advance(600 * time.Millisecond)
	m.PlaybackChanged(false, "one")
	assert.Equal(t, MediaHidden, m.State().Phase)
	assert.Equal(t, 0, clock.PendingCount())

	clock.Advance(10 * time.Second)
	assert.Equal(t, MediaHidden, m.State().Phase)
	assert.False(t, m.Visible())
}

func TestMedia_TrackSkipsRestartDebounce(t *testing.T) {
	m, clock := newTestMedia()

	m.PlaybackChanged(true, "one")
	clock.Advance(800 * time.Millisecond)
	m.PlaybackChanged(true, "two")
	clock.Advance(800 * time.Millisecond)
	assert.Equal(t, MediaDebounceArmed, m.State().Phase)

	clock.Advance(200 * time.Millisecond)
	assert.True(t, m.Visible())
	assert.Equal(t, "two", m.State().Track)
}

func TestMedia_FadeOnlyUndoneByPinOrTrackChange(t *testing.T) {
	m, clock := newTestMedia()
	playVisible(t, m, clock, "one")

	clock.Advance(5 * time.Second)
	assert.Equal(t, MediaFadedOut, m.State().Phase)
	assert.False(t, m.Visible())

	// Continued playback of the same track keeps it faded.
	m.PlaybackChanged(true, "one")
	clock.Advance(time.Minute)
	assert.Equal(t, MediaFadedOut, m.State().Phase)

	assert.True(t, m.Pin())
	assert.Equal(t, MediaVisible, m.State().Phase)
	assert.True(t, m.Visible())

	// Pinned media does not fade again.
	clock.Advance(time.Minute)
	assert.True(t, m.Visible())
}

func TestMedia_TrackChangeRevivesFaded(t *testing.T) {
	m, clock := newTestMedia()
	playVisible(t, m, clock, "one")
	clock.Advance(5 * time.Second)
	require.Equal(t, MediaFadedOut, m.State().Phase)

	m.PlaybackChanged(true, "two")
	assert.Equal(t, MediaVisible, m.State().Phase)
	clock.Advance(300 * time.Millisecond)
	assert.True(t, m.Visible())
}

func TestMedia_TrackChangeSuppressesAndResetsFade(t *testing.T) {
	m, clock := newTestMedia()
	playVisible(t, m, clock, "A")

	clock.Advance(4 * time.Second)
	m.PlaybackChanged(true, "B")
	assert.True(t, m.Suppressed())
	assert.False(t, m.Visible())
	assert.Equal(t, MediaVisible, m.State().Phase)

	clock.Advance(299 * time.Millisecond)
	assert.False(t, m.Visible())
	clock.Advance(time.Millisecond)
	assert.True(t, m.Visible())
	assert.Equal(t, "B", m.State().Track)

	// The fade window restarted at the track change.
	clock.Advance(4 * time.Second)
	assert.Equal(t, MediaVisible, m.State().Phase)
	clock.Advance(700 * time.Millisecond)
	assert.Equal(t, MediaFadedOut, m.State().Phase)
}

func TestMedia_StopHidesImmediately(t *testing.T) {
	m, clock := newTestMedia()
	playVisible(t, m, clock, "one")

	m.PlaybackChanged(false, "one")
	assert.Equal(t, MediaHidden, m.State().Phase)
	assert.False(t, m.Visible())
	assert.Equal(t, 0, clock.PendingCount())
}

func TestMedia_PlaybackStartResetsOverrides(t *testing.T) {
	m, clock := newTestMedia()
	playVisible(t, m, clock, "one")

	m.Hide()
	assert.False(t, m.Visible())
	assert.True(t, m.State().UserHidden)

	m.PlaybackChanged(false, "one")
	m.PlaybackChanged(true, "one")
	assert.False(t, m.State().UserHidden)
	assert.False(t, m.State().ForcedVisible)

	clock.Advance(time.Second)
	assert.True(t, m.Visible())
}

func TestMedia_Toggle(t *testing.T) {
	m, clock := newTestMedia()
	assert.False(t, m.Toggle(), "nothing to pin without a track")

	playVisible(t, m, clock, "one")
	assert.True(t, m.Toggle())
	assert.False(t, m.Visible())
	assert.True(t, m.Toggle())
	assert.True(t, m.Visible())
	assert.True(t, m.State().ForcedVisible)
}

func TestMedia_PinPausedTrack(t *testing.T) {
	m, clock := newTestMedia()
	playVisible(t, m, clock, "one")
	m.PlaybackChanged(false, "one")
	require.False(t, m.Visible())

	assert.True(t, m.Pin())
	assert.True(t, m.Visible())
}

func TestMedia_DisabledIgnoresPlayback(t *testing.T) {
	m, clock := newTestMedia(func(c *config.MediaConfig) { c.Enabled = false })

	m.PlaybackChanged(true, "one")
	clock.Advance(time.Minute)
	assert.Equal(t, MediaHidden, m.State().Phase)
	assert.False(t, m.Visible())
}

func TestMedia_FadeDisabled(t *testing.T) {
	m, clock := newTestMedia(func(c *config.MediaConfig) { c.FadeEnabled = false })
	playVisible(t, m, clock, "one")

	clock.Advance(time.Hour)
	assert.True(t, m.Visible())
}
