package sched

import "time"

// Timer is a cancellation handle for a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It returns false if the callback already ran
	// or was already stopped.
	Stop() bool
}

// Scheduler runs callbacks on one logical thread.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time
	// AfterFunc runs fn on the scheduler thread after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// Post runs fn on the scheduler thread as soon as possible.
	Post(fn func())
}

// StopTimer stops t if it is non-nil and reports whether a pending callback
// was cancelled.
func StopTimer(t Timer) bool {
	if t == nil {
		return false
	}
	return t.Stop()
}
