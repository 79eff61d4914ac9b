// Package audio plays optional sound cues when an ephemeral overlay is
// installed. Sounds are configured per signal kind and decoded with beep
// (WAV, OGG and MP3).
package audio
