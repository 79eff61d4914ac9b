// Package sched provides the single-threaded scheduling facility used by the
// overlay engine. All authoritative state mutation happens inside callbacks
// run by a Scheduler; timers are one-shot and return a cancellation handle.
package sched
