// Package surface renders notch presentations as GTK4 layer-shell windows,
// one per monitor, and reports pointer and drag activity back to the engine.
// It never decides what to show: every window draws the Presentation the
// engine resolved for its display.
package surface
