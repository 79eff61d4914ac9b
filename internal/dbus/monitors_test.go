package dbus

import (
	"math"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/model"
)

func props(kv ...interface{}) map[string]dbus.Variant {
	m := make(map[string]dbus.Variant, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = dbus.MakeVariant(kv[i+1])
	}
	return m
}

func TestBatteryTracker(t *testing.T) {
	tests := []struct {
		name     string
		state    uint32
		pct      float64
		changed  map[string]dbus.Variant
		wantFire bool
		wantVal  float64
	}{
		{
			name:     "charger plugged in",
			state:    batteryDischarging,
			pct:      55,
			changed:  props("State", batteryCharging),
			wantFire: true,
			wantVal:  0.55,
		},
		{
			name:     "charger unplugged",
			state:    batteryFullyCharged,
			pct:      100,
			changed:  props("State", batteryDischarging, "Percentage", 99.0),
			wantFire: true,
			wantVal:  0.99,
		},
		{
			name:    "charging to full is quiet",
			state:   batteryCharging,
			pct:     99,
			changed: props("State", batteryFullyCharged, "Percentage", 100.0),
		},
		{
			name:     "crossing low level",
			state:    batteryDischarging,
			pct:      21,
			changed:  props("Percentage", 20.0),
			wantFire: true,
			wantVal:  0.2,
		},
		{
			name:    "draining above low level",
			state:   batteryDischarging,
			pct:     60,
			changed: props("Percentage", 59.0),
		},
		{
			name:    "low level while charging",
			state:   batteryCharging,
			pct:     21,
			changed: props("Percentage", 20.0),
		},
		{
			name:    "unrelated property",
			state:   batteryDischarging,
			pct:     50,
			changed: props("TimeToEmpty", int64(3600)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr batteryTracker
			tr.seed(tt.state, tt.pct)

			sig, fire := tr.update(tt.changed)
			assert.Equal(t, tt.wantFire, fire)
			assert.Equal(t, model.SignalBattery, sig.Kind)
			if tt.wantFire {
				assert.InDelta(t, tt.wantVal, sig.Value, 0.0001)
			}
		})
	}
}

func TestBatteryTracker_UnseededDoesNotFire(t *testing.T) {
	var tr batteryTracker
	_, fire := tr.update(props("State", batteryCharging, "Percentage", 40.0))
	assert.False(t, fire)

	_, fire = tr.update(props("State", batteryDischarging))
	assert.True(t, fire)
}

func TestAccessoryConnected(t *testing.T) {
	connected, ok := accessoryConnected(props("Connected", true))
	assert.True(t, ok)
	assert.True(t, connected)

	_, ok = accessoryConnected(props("RSSI", int16(-40)))
	assert.False(t, ok)

	assert.True(t, isAudioIcon("audio-headphones"))
	assert.True(t, isAudioIcon("audio-card"))
	assert.False(t, isAudioIcon("input-mouse"))
}

func TestLockState(t *testing.T) {
	tests := []struct {
		name   string
		sig    *dbus.Signal
		locked bool
		ok     bool
	}{
		{"lock", &dbus.Signal{Name: logindSession + ".Lock"}, true, true},
		{"unlock", &dbus.Signal{Name: logindSession + ".Unlock"}, false, true},
		{
			"locked hint",
			&dbus.Signal{Name: propertiesChanged, Body: []interface{}{logindSession, props("LockedHint", true), []string{}}},
			true, true,
		},
		{
			"other property",
			&dbus.Signal{Name: propertiesChanged, Body: []interface{}{logindSession, props("IdleHint", true), []string{}}},
			false, false,
		},
		{"unrelated", &dbus.Signal{Name: logindSession + ".PauseDevice"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locked, ok := lockState(tt.sig)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.locked, locked)
		})
	}
}

func TestScreenLockMonitor_Transition(t *testing.T) {
	m := NewScreenLockMonitor(nil)
	assert.True(t, m.transition(true))
	assert.False(t, m.transition(true), "LockedHint after Lock is a duplicate")
	assert.True(t, m.transition(false))
}

func TestParsePropertiesChanged(t *testing.T) {
	_, _, ok := parsePropertiesChanged(&dbus.Signal{Name: propertiesChanged, Body: []interface{}{"x"}})
	assert.False(t, ok)

	iface, changed, ok := parsePropertiesChanged(&dbus.Signal{
		Name: propertiesChanged,
		Body: []interface{}{upowerDevice, props("State", batteryCharging), []string{}},
	})
	require.True(t, ok)
	assert.Equal(t, upowerDevice, iface)
	assert.Contains(t, changed, "State")
}

func TestTrackKey(t *testing.T) {
	tests := []struct {
		name string
		md   map[string]dbus.Variant
		want string
	}{
		{"artist and title", props("xesam:artist", []string{"Boards of Canada"}, "xesam:title", "Roygbiv"), "Boards of Canada - Roygbiv"},
		{"several artists", props("xesam:artist", []string{"A", "B"}, "xesam:title", "T"), "A, B - T"},
		{"title only", props("xesam:title", "Untitled"), "Untitled"},
		{"track id", props("mpris:trackid", dbus.ObjectPath("/org/mpd/Track/7")), "/org/mpd/Track/7"},
		{"url", props("xesam:url", "file:///music/a.flac"), "file:///music/a.flac"},
		{"empty", props(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trackKey(tt.md))
		})
	}
}

func TestPlayerSet(t *testing.T) {
	ps := newPlayerSet()
	md := func(title string) dbus.Variant {
		return dbus.MakeVariant(props("xesam:title", title))
	}

	playing, track, changed := ps.update(":1.10", map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Playing"),
		"Metadata":       md("one"),
	})
	assert.True(t, changed)
	assert.True(t, playing)
	assert.Equal(t, "one", track)

	// A paused second player does not take over.
	_, track, changed = ps.update(":1.20", map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Paused"),
		"Metadata":       md("two"),
	})
	assert.False(t, changed)
	assert.Equal(t, "one", track)

	// Same state again reports nothing.
	_, _, changed = ps.update(":1.10", map[string]dbus.Variant{"PlaybackStatus": dbus.MakeVariant("Playing")})
	assert.False(t, changed)

	// Player leaving hands over to the paused one.
	playing, track, changed = ps.remove(":1.10")
	assert.True(t, changed)
	assert.False(t, playing)
	assert.Equal(t, "two", track)

	_, _, changed = ps.remove(":1.99")
	assert.False(t, changed)
}

func TestNotificationHints(t *testing.T) {
	n := &Notification{Hints: map[string]dbus.Variant{
		"urgency":   dbus.MakeVariant(UrgencyCritical),
		"transient": dbus.MakeVariant(true),
	}}
	assert.Equal(t, UrgencyCritical, n.Urgency())
	assert.True(t, n.Transient())

	empty := &Notification{}
	assert.Equal(t, UrgencyNormal, empty.Urgency())
	assert.False(t, empty.Transient())
}

func TestControlServer_SignalRejectsNonFinite(t *testing.T) {
	var got []model.Signal
	s := NewControlServer(nil, nil, func(sig model.Signal) { got = append(got, sig) }, nil)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		derr := s.Signal("volume", v, 0)
		require.NotNil(t, derr)
		assert.Equal(t, errorInvalidArgs, derr.Name)
	}
	assert.Empty(t, got)

	require.Nil(t, s.Signal("volume", 1.4, 500))
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Value)
	assert.Equal(t, model.SignalVolume, got[0].Kind)
}
