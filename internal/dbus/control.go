package dbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/engine"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

const (
	// ControlInterface is the control interface name.
	ControlInterface = "io.github.jmylchreest.Notch"
	// ControlPath is the control object path.
	ControlPath = "/io/github/jmylchreest/Notch"
	// ControlBusName is the bus name notchd claims.
	ControlBusName = "io.github.jmylchreest.Notch"

	errorUnknownDisplay = ControlInterface + ".Error.UnknownDisplay"
	errorInvalidArgs    = ControlInterface + ".Error.InvalidArgs"
	errorTimeout        = ControlInterface + ".Error.Timeout"
)

// callTimeout bounds how long a bus call waits for the scheduler thread.
const callTimeout = 2 * time.Second

var errCallTimeout = errors.New("timed out waiting for engine")

// ControlServer exports the engine's collaborator intents on the session
// bus. Calls arrive on godbus goroutines and are run on the scheduler
// thread.
type ControlServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	sched  sched.Scheduler
	engine *engine.Engine
	emit   func(model.Signal)

	mu      sync.Mutex
	running bool
}

// NewControlServer creates a control server for eng. emit receives signals
// pushed with the Signal method so they share same-tick arbitration with
// the built-in monitors.
func NewControlServer(s sched.Scheduler, eng *engine.Engine, emit func(model.Signal), logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		logger: logger,
		sched:  s,
		engine: eng,
		emit:   emit,
	}
}

// Start connects to the session bus and exports the control service.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: ControlPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ControlInterface,
				Methods: controlMethods(),
				Signals: controlSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ControlPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ControlBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken, is notchd already running?", ControlBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus control server started", "interface", ControlInterface, "path", ControlPath)
	return nil
}

// Stop releases the bus name.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(ControlBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus control server stopped")
	return nil
}

// EmitPresentationChanged emits the PresentationChanged signal.
func (s *ControlServer) EmitPresentationChanged(p model.Presentation) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	kind := ""
	if p.Kind != nil {
		kind = p.Kind.String()
	}
	if err := s.conn.Emit(ControlPath, ControlInterface+".PresentationChanged",
		string(p.Display), p.Mode.String(), kind); err != nil {
		return fmt.Errorf("failed to emit PresentationChanged signal: %w", err)
	}
	return nil
}

// call runs fn on the scheduler thread and waits for it.
func (s *ControlServer) call(method string, fn func() error) *dbus.Error {
	s.logger.Debug("control call", "method", method)

	done := make(chan error, 1)
	s.sched.Post(func() { done <- fn() })

	var err error
	select {
	case err = <-done:
	case <-time.After(callTimeout):
		err = errCallTimeout
	}
	if err == nil {
		return nil
	}

	s.logger.Debug("control call failed", "method", method, "error", err)
	return toDBusError(err)
}

func toDBusError(err error) *dbus.Error {
	var invalid *argError
	switch {
	case errors.As(err, &invalid):
		return dbus.NewError(errorInvalidArgs, []interface{}{err.Error()})
	case errors.Is(err, errCallTimeout):
		return dbus.NewError(errorTimeout, []interface{}{err.Error()})
	case isUnknownDisplay(err):
		return dbus.NewError(errorUnknownDisplay, []interface{}{err.Error()})
	default:
		return dbus.MakeFailedError(err)
	}
}

func isUnknownDisplay(err error) bool {
	var regErr *display.RegistryError
	return errors.As(err, &regErr)
}

// argError reports a malformed method argument.
type argError struct {
	msg string
}

func (e *argError) Error() string { return e.msg }

// target picks the display a gesture applies to. Empty means the first
// connected display.
func (s *ControlServer) target(display string) (model.DisplayID, error) {
	if display != "" {
		return model.DisplayID(display), nil
	}
	all := s.engine.Registry().All()
	if len(all) == 0 {
		return "", &argError{msg: "no displays connected"}
	}
	return all[0].ID, nil
}

// Expand gives the tray to display.
// D-Bus method: Expand(s) -> nothing
func (s *ControlServer) Expand(display string) *dbus.Error {
	return s.call("Expand", func() error {
		d, err := s.target(display)
		if err != nil {
			return err
		}
		return s.engine.RequestExpand(d)
	})
}

// Collapse closes the tray.
// D-Bus method: Collapse() -> nothing
func (s *ControlServer) Collapse() *dbus.Error {
	return s.call("Collapse", func() error {
		s.engine.Collapse()
		return nil
	})
}

// ToggleExpand toggles the tray on display.
// D-Bus method: ToggleExpand(s) -> nothing
func (s *ControlServer) ToggleExpand(display string) *dbus.Error {
	return s.call("ToggleExpand", func() error {
		d, err := s.target(display)
		if err != nil {
			return err
		}
		return s.engine.ToggleExpand(d)
	})
}

// PinMedia forces the media presentation visible.
// D-Bus method: PinMedia() -> b
func (s *ControlServer) PinMedia() (bool, *dbus.Error) {
	var ok bool
	derr := s.call("PinMedia", func() error {
		ok = s.engine.PinMedia()
		return nil
	})
	return ok, derr
}

// HideMedia hides the media presentation.
// D-Bus method: HideMedia() -> nothing
func (s *ControlServer) HideMedia() *dbus.Error {
	return s.call("HideMedia", func() error {
		s.engine.HideMedia()
		return nil
	})
}

// ToggleMedia toggles the media presentation.
// D-Bus method: ToggleMedia() -> b
func (s *ControlServer) ToggleMedia() (bool, *dbus.Error) {
	var ok bool
	derr := s.call("ToggleMedia", func() error {
		ok = s.engine.ToggleMedia()
		return nil
	})
	return ok, derr
}

// Dismiss clears the ephemeral overlay.
// D-Bus method: Dismiss() -> b
func (s *ControlServer) Dismiss() (bool, *dbus.Error) {
	var ok bool
	derr := s.call("Dismiss", func() error {
		ok = s.engine.Dismiss()
		return nil
	})
	return ok, derr
}

// SetHover reports pointer hover on a display.
// D-Bus method: SetHover(sb) -> nothing
func (s *ControlServer) SetHover(display string, hovering bool) *dbus.Error {
	return s.call("SetHover", func() error {
		s.engine.SetHover(model.DisplayID(display), hovering)
		return nil
	})
}

// SetDragging reports a drag session over a display.
// D-Bus method: SetDragging(sb) -> nothing
func (s *ControlServer) SetDragging(display string, dragging bool) *dbus.Error {
	return s.call("SetDragging", func() error {
		s.engine.SetDragging(model.DisplayID(display), dragging)
		return nil
	})
}

// SetItems reports the tray item count and the display it changed on.
// D-Bus method: SetItems(is) -> nothing
func (s *ControlServer) SetItems(count int32, site string) *dbus.Error {
	if count < 0 {
		return toDBusError(&argError{msg: fmt.Sprintf("item count must not be negative, got %d", count)})
	}
	return s.call("SetItems", func() error {
		s.engine.ItemsChanged(int(count), model.DisplayID(site))
		return nil
	})
}

// SetPlayback reports player state for setups without MPRIS.
// D-Bus method: SetPlayback(bs) -> nothing
func (s *ControlServer) SetPlayback(playing bool, track string) *dbus.Error {
	return s.call("SetPlayback", func() error {
		s.engine.PlaybackChanged(playing, track)
		return nil
	})
}

// Signal pushes an ephemeral signal. durationMs <= 0 uses the configured
// duration for kind.
// D-Bus method: Signal(sdi) -> nothing
func (s *ControlServer) Signal(kind string, value float64, durationMs int32) *dbus.Error {
	k, err := model.ParseSignalKind(kind)
	if err != nil {
		return toDBusError(&argError{msg: err.Error()})
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return toDBusError(&argError{msg: fmt.Sprintf("signal value %v is not a finite number", value)})
	}
	var d time.Duration
	if durationMs > 0 {
		d = time.Duration(durationMs) * time.Millisecond
	}
	if s.emit == nil {
		return dbus.MakeFailedError(errors.New("signals are not accepted"))
	}
	s.logger.Debug("control call", "method", "Signal", "kind", k, "value", value)
	s.emit(model.Signal{Kind: k, Value: model.ClampValue(value), Duration: d})
	return nil
}

// Status returns the engine status as JSON.
// D-Bus method: Status() -> s
func (s *ControlServer) Status() (string, *dbus.Error) {
	var out []byte
	derr := s.call("Status", func() error {
		var err error
		out, err = json.Marshal(s.engine.Status())
		return err
	})
	if derr != nil {
		return "", derr
	}
	return string(out), nil
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	in := func(name, typ string) introspect.Arg {
		return introspect.Arg{Name: name, Type: typ, Direction: "in"}
	}
	out := func(name, typ string) introspect.Arg {
		return introspect.Arg{Name: name, Type: typ, Direction: "out"}
	}
	return []introspect.Method{
		{Name: "Expand", Args: []introspect.Arg{in("display", "s")}},
		{Name: "Collapse"},
		{Name: "ToggleExpand", Args: []introspect.Arg{in("display", "s")}},
		{Name: "PinMedia", Args: []introspect.Arg{out("shown", "b")}},
		{Name: "HideMedia"},
		{Name: "ToggleMedia", Args: []introspect.Arg{out("changed", "b")}},
		{Name: "Dismiss", Args: []introspect.Arg{out("dismissed", "b")}},
		{Name: "SetHover", Args: []introspect.Arg{in("display", "s"), in("hovering", "b")}},
		{Name: "SetDragging", Args: []introspect.Arg{in("display", "s"), in("dragging", "b")}},
		{Name: "SetItems", Args: []introspect.Arg{in("count", "i"), in("site", "s")}},
		{Name: "SetPlayback", Args: []introspect.Arg{in("playing", "b"), in("track", "s")}},
		{Name: "Signal", Args: []introspect.Arg{in("kind", "s"), in("value", "d"), in("duration_ms", "i")}},
		{Name: "Status", Args: []introspect.Arg{out("status", "s")}},
	}
}

// controlSignals returns the D-Bus signal introspection data.
func controlSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "PresentationChanged",
			Args: []introspect.Arg{
				{Name: "display", Type: "s"},
				{Name: "mode", Type: "s"},
				{Name: "kind", Type: "s"},
			},
		},
	}
}
