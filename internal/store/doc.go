// Package store persists the small amount of state shared between the notch
// CLI and the notchd daemon, and watches it for changes.
package store
