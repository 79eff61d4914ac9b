package signal

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// Submitter is the arbiter entry point the dispatcher feeds.
type Submitter interface {
	Submit(kind model.SignalKind, value float64, duration time.Duration)
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(kind model.SignalKind, value float64, duration time.Duration)

// Submit calls f.
func (f SubmitFunc) Submit(kind model.SignalKind, value float64, duration time.Duration) {
	f(kind, value, duration)
}

// Dispatcher batches signals that arrive in the same scheduler tick and
// submits only the highest-priority one. Equal priorities keep the latest.
type Dispatcher struct {
	sched  sched.Scheduler
	target Submitter
	logger *slog.Logger

	// Accessed only on the scheduler thread.
	pending   []model.Signal
	scheduled bool
	onSignal  func(model.Signal)
}

// NewDispatcher creates a dispatcher that submits to target.
func NewDispatcher(s sched.Scheduler, target Submitter, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sched: s, target: target, logger: logger}
}

// SetSignalCallback sets a function called with every signal the
// dispatcher submits, on the scheduler thread.
func (d *Dispatcher) SetSignalCallback(fn func(model.Signal)) {
	d.onSignal = fn
}

// Emit queues sig. Safe to call from any goroutine.
func (d *Dispatcher) Emit(sig model.Signal) {
	d.sched.Post(func() { d.enqueue(sig) })
}

// EmitFunc returns d.Emit for handing to monitors.
func (d *Dispatcher) EmitFunc() EmitFunc {
	return d.Emit
}

func (d *Dispatcher) enqueue(sig model.Signal) {
	if sig.At.IsZero() {
		sig.At = d.sched.Now()
	}
	d.pending = append(d.pending, sig)
	if d.scheduled {
		return
	}
	d.scheduled = true
	d.sched.Post(d.flush)
}

func (d *Dispatcher) flush() {
	batch := d.pending
	d.pending = nil
	d.scheduled = false
	if len(batch) == 0 {
		return
	}

	winner := batch[0]
	for _, sig := range batch[1:] {
		if sig.Kind.Priority() >= winner.Kind.Priority() {
			winner = sig
		}
	}
	if len(batch) > 1 {
		d.logger.Debug("signals collided", "count", len(batch), "winner", winner.Kind)
	}

	d.target.Submit(winner.Kind, winner.Value, winner.Duration)
	if d.onSignal != nil {
		d.onSignal(winner)
	}
}
