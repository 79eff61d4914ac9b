package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const propertiesChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"

// busWatch owns a private bus connection subscribed to a set of match rules.
type busWatch struct {
	conn   *dbus.Conn
	ch     chan *dbus.Signal
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
}

type connectFunc func(opts ...dbus.ConnOption) (*dbus.Conn, error)

// watchBus opens a private connection and adds every match rule.
func watchBus(connect connectFunc, logger *slog.Logger, rules ...[]dbus.MatchOption) (*busWatch, error) {
	conn, err := connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bus: %w", err)
	}
	for _, rule := range rules {
		if err := conn.AddMatchSignal(rule...); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to add match rule: %w", err)
		}
	}

	ch := make(chan *dbus.Signal, 32)
	conn.Signal(ch)

	return &busWatch{
		conn:   conn,
		ch:     ch,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// run dispatches signals to handle until ctx ends or close is called.
func (w *busWatch) run(ctx context.Context, handle func(*dbus.Signal)) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = w.close()
				return
			case <-w.done:
				return
			case sig, ok := <-w.ch:
				if !ok {
					return
				}
				handle(sig)
			}
		}
	}()
}

func (w *busWatch) close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.conn.RemoveSignal(w.ch)
		err = w.conn.Close()
	})
	return err
}

// parsePropertiesChanged unpacks an org.freedesktop.DBus.Properties
// PropertiesChanged signal.
func parsePropertiesChanged(sig *dbus.Signal) (string, map[string]dbus.Variant, bool) {
	if sig == nil || sig.Name != propertiesChanged || len(sig.Body) < 2 {
		return "", nil, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		return "", nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return "", nil, false
	}
	return iface, changed, true
}

// stopper is the shared Stop implementation for monitors built on busWatch.
type stopper struct {
	mu    sync.Mutex
	watch *busWatch
}

func (s *stopper) set(w *busWatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watch = w
}

// Stop implements signal.Monitor.
func (s *stopper) Stop() error {
	s.mu.Lock()
	w := s.watch
	s.watch = nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.close()
}
