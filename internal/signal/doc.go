// Package signal connects external monitors to the engine. Monitors run on
// their own goroutines and emit model.Signal values; the Dispatcher moves
// them onto the scheduler thread and resolves same-tick collisions by kind
// priority before anything is submitted.
package signal
