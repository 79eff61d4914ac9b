// Package engine implements the overlay arbitration and lifecycle engine.
//
// Four components hold authoritative state: the ephemeral signal Arbiter,
// the Ownership tracker, the Media presentation controller and the Tray
// lifecycle controller. Resolve is a pure projection over a Snapshot of that
// state and yields exactly one presentation per display.
//
// Every exported Engine method, and every timer callback, must run on the
// scheduler's single logical thread.
package engine
