// Package display classifies connected monitors. It decides whether each
// display has a physical camera cutout, resolves the presentation style
// from that capability plus the user's preference, and answers lookups by
// connector name.
package display
