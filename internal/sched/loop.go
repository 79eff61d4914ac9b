package sched

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a goroutine-backed event loop. Callbacks posted to it, including
// timer callbacks, run one at a time in submission order.
type Loop struct {
	logger *slog.Logger

	queue chan func()

	mu      sync.Mutex
	started bool
	doneCh  chan struct{}
}

// NewLoop creates a loop with the given queue depth.
func NewLoop(depth int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if depth <= 0 {
		depth = 256
	}
	return &Loop{
		logger: logger,
		queue:  make(chan func(), depth),
		doneCh: make(chan struct{}),
	}
}

// Run processes callbacks until ctx is cancelled. It blocks. A loop can only
// be run once; later calls return immediately.
func (l *Loop) Run(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	defer close(l.doneCh)

	l.logger.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped")
			return
		case fn := <-l.queue:
			l.invoke(fn)
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.doneCh
}

// invoke runs one callback, containing panics so one bad handler cannot
// take down the loop.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop callback panicked", "panic", r)
		}
	}()
	fn()
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post enqueues fn. It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.queue <- fn
}

// AfterFunc schedules fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			// Stop may have been called after the runtime timer fired but
			// before the callback reached the loop.
			if t.fired.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// loopTimer cancels both the runtime timer and any queued callback.
type loopTimer struct {
	timer *time.Timer
	fired atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.fired.CompareAndSwap(false, true)
}
