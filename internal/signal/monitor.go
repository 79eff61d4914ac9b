package signal

import (
	"context"

	"github.com/jmylchreest/notchd/internal/model"
)

// EmitFunc receives signals from a monitor. It is safe to call from any
// goroutine.
type EmitFunc func(model.Signal)

// Monitor is a source of ephemeral signals. A monitor that cannot read its
// source logs the problem and never emits.
type Monitor interface {
	Name() string
	Start(ctx context.Context, emit EmitFunc) error
	Stop() error
}
