package dbus

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix = "org.mpris.MediaPlayer2."
	mprisPath   = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisPlayer = "org.mpris.MediaPlayer2.Player"
)

// PlaybackFunc receives aggregated player state.
type PlaybackFunc func(playing bool, track string)

// trackKey builds a stable identity for the track described by MPRIS
// metadata. Artist and title are preferred over mpris:trackid because some
// players reuse track IDs.
func trackKey(metadata map[string]dbus.Variant) string {
	title, _ := variantString(metadata["xesam:title"])
	artists, _ := variantStrings(metadata["xesam:artist"])
	artist := strings.Join(artists, ", ")

	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	}
	if id, ok := variantString(metadata["mpris:trackid"]); ok && id != "" {
		return id
	}
	if url, ok := variantString(metadata["xesam:url"]); ok {
		return url
	}
	return ""
}

func metadataOf(v dbus.Variant) (map[string]dbus.Variant, bool) {
	m, ok := v.Value().(map[string]dbus.Variant)
	return m, ok
}

type playerState struct {
	playing bool
	track   string
	seq     uint64
}

// playerSet aggregates several MPRIS players into one playback state: the
// most recently active playing player wins, otherwise the most recently
// updated one.
type playerSet struct {
	players map[string]*playerState
	seq     uint64

	lastPlaying bool
	lastTrack   string
	reported    bool
}

func newPlayerSet() *playerSet {
	return &playerSet{players: make(map[string]*playerState)}
}

// update applies a property change from owner and reports the aggregate if
// it changed.
func (ps *playerSet) update(owner string, changed map[string]dbus.Variant) (bool, string, bool) {
	p, ok := ps.players[owner]
	if !ok {
		p = &playerState{}
		ps.players[owner] = p
	}
	touched := false
	if v, ok := changed["PlaybackStatus"]; ok {
		if status, ok := variantString(v); ok {
			p.playing = status == "Playing"
			touched = true
		}
	}
	if v, ok := changed["Metadata"]; ok {
		if md, ok := metadataOf(v); ok {
			p.track = trackKey(md)
			touched = true
		}
	}
	if touched {
		ps.seq++
		p.seq = ps.seq
	}
	return ps.aggregate()
}

// remove drops a player that left the bus.
func (ps *playerSet) remove(owner string) (bool, string, bool) {
	if _, ok := ps.players[owner]; !ok {
		return false, "", false
	}
	delete(ps.players, owner)
	return ps.aggregate()
}

func (ps *playerSet) aggregate() (bool, string, bool) {
	var best *playerState
	for _, p := range ps.players {
		switch {
		case best == nil:
			best = p
		case p.playing != best.playing:
			if p.playing {
				best = p
			}
		case p.seq > best.seq:
			best = p
		}
	}

	playing, track := false, ""
	if best != nil {
		playing, track = best.playing, best.track
	}
	if ps.reported && playing == ps.lastPlaying && track == ps.lastTrack {
		return playing, track, false
	}
	ps.reported = true
	ps.lastPlaying, ps.lastTrack = playing, track
	return playing, track, true
}

// PlaybackMonitor follows MPRIS media players on the session bus.
type PlaybackMonitor struct {
	stopper
	logger *slog.Logger

	mu      sync.Mutex
	players *playerSet
}

// NewPlaybackMonitor creates a playback monitor.
func NewPlaybackMonitor(logger *slog.Logger) *PlaybackMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackMonitor{logger: logger, players: newPlayerSet()}
}

// Name returns the monitor name.
func (m *PlaybackMonitor) Name() string { return "playback" }

// Start begins following players. onChange runs on the monitor goroutine.
func (m *PlaybackMonitor) Start(ctx context.Context, onChange PlaybackFunc) error {
	w, err := watchBus(dbus.ConnectSessionBus, m.logger,
		[]dbus.MatchOption{
			dbus.WithMatchObjectPath(mprisPath),
			dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
			dbus.WithMatchMember("PropertiesChanged"),
			dbus.WithMatchArg(0, mprisPlayer),
		},
		[]dbus.MatchOption{
			dbus.WithMatchSender("org.freedesktop.DBus"),
			dbus.WithMatchInterface("org.freedesktop.DBus"),
			dbus.WithMatchMember("NameOwnerChanged"),
			dbus.WithMatchArg0Namespace("org.mpris.MediaPlayer2"),
		},
	)
	if err != nil {
		return err
	}
	m.set(w)

	m.discover(w.conn, onChange)

	w.run(ctx, func(sig *dbus.Signal) {
		if sig.Name == "org.freedesktop.DBus.NameOwnerChanged" {
			if len(sig.Body) < 3 {
				return
			}
			oldOwner, _ := sig.Body[1].(string)
			newOwner, _ := sig.Body[2].(string)
			if newOwner == "" && oldOwner != "" {
				m.apply(onChange, func(ps *playerSet) (bool, string, bool) { return ps.remove(oldOwner) })
			}
			return
		}

		iface, changed, ok := parsePropertiesChanged(sig)
		if !ok || iface != mprisPlayer {
			return
		}
		m.apply(onChange, func(ps *playerSet) (bool, string, bool) { return ps.update(sig.Sender, changed) })
	})

	m.logger.Debug("playback monitor started")
	return nil
}

// discover seeds the player set from players already on the bus.
func (m *PlaybackMonitor) discover(conn *dbus.Conn, onChange PlaybackFunc) {
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		m.logger.Debug("failed to list bus names", "error", err)
		return
	}

	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		var owner string
		if err := conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner); err != nil {
			continue
		}

		obj := conn.Object(name, mprisPath)
		changed := make(map[string]dbus.Variant, 2)
		if v, err := obj.GetProperty(mprisPlayer + ".PlaybackStatus"); err == nil {
			changed["PlaybackStatus"] = v
		}
		if v, err := obj.GetProperty(mprisPlayer + ".Metadata"); err == nil {
			changed["Metadata"] = v
		}
		m.logger.Debug("found media player", "name", name, "owner", owner)
		m.apply(onChange, func(ps *playerSet) (bool, string, bool) { return ps.update(owner, changed) })
	}
}

func (m *PlaybackMonitor) apply(onChange PlaybackFunc, fn func(*playerSet) (bool, string, bool)) {
	m.mu.Lock()
	playing, track, changed := fn(m.players)
	m.mu.Unlock()

	if changed && onChange != nil {
		m.logger.Debug("playback changed", "playing", playing, "track", track)
		onChange(playing, track)
	}
}
