package dbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notchd/internal/engine"
	"github.com/jmylchreest/notchd/internal/model"
)

// ErrNotRunning is returned when notchd does not own its bus name.
var ErrNotRunning = errors.New("notchd is not running")

// Client calls the notchd control service.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus and checks that notchd is running.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var owned bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, ControlBusName).Store(&owned); err != nil {
		return nil, fmt.Errorf("failed to query bus name: %w", err)
	}
	if !owned {
		return nil, ErrNotRunning
	}

	return &Client{
		conn: conn,
		obj:  conn.Object(ControlBusName, ControlPath),
	}, nil
}

func (c *Client) call(method string, args ...interface{}) *dbus.Call {
	return c.obj.Call(ControlInterface+"."+method, 0, args...)
}

// Expand gives the tray to display. Empty means the first display.
func (c *Client) Expand(display string) error {
	return c.call("Expand", display).Err
}

// Collapse closes the tray.
func (c *Client) Collapse() error {
	return c.call("Collapse").Err
}

// ToggleExpand toggles the tray on display.
func (c *Client) ToggleExpand(display string) error {
	return c.call("ToggleExpand", display).Err
}

// PinMedia forces media visible. Returns false if there was nothing to show.
func (c *Client) PinMedia() (bool, error) {
	var ok bool
	err := c.call("PinMedia").Store(&ok)
	return ok, err
}

// HideMedia hides media until playback restarts.
func (c *Client) HideMedia() error {
	return c.call("HideMedia").Err
}

// ToggleMedia toggles media visibility.
func (c *Client) ToggleMedia() (bool, error) {
	var ok bool
	err := c.call("ToggleMedia").Store(&ok)
	return ok, err
}

// Dismiss clears the ephemeral overlay.
func (c *Client) Dismiss() (bool, error) {
	var ok bool
	err := c.call("Dismiss").Store(&ok)
	return ok, err
}

// SetItems reports the tray item count.
func (c *Client) SetItems(count int, site string) error {
	return c.call("SetItems", int32(count), site).Err
}

// SetPlayback reports player state.
func (c *Client) SetPlayback(playing bool, track string) error {
	return c.call("SetPlayback", playing, track).Err
}

// Signal pushes an ephemeral signal. Zero duration uses the daemon default.
func (c *Client) Signal(kind model.SignalKind, value float64, duration time.Duration) error {
	return c.call("Signal", kind.String(), value, int32(duration/time.Millisecond)).Err
}

// Status fetches the engine status.
func (c *Client) Status() (*engine.Status, error) {
	var raw string
	if err := c.call("Status").Store(&raw); err != nil {
		return nil, err
	}
	var st engine.Status
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &st, nil
}
