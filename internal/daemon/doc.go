// Package daemon wires notchd together. It owns the engine and connects it
// to the signal sources, the D-Bus control service, sound cues, persisted
// focus and style state, and config hot reload.
package daemon
