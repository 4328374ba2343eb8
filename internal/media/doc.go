// Package media defines the closed set of accepted upload formats.
//
// Subpackages probe containers (ffprobe), pick the audio stream worth
// transcribing (audio), and convert it to the canonical waveform (normalize).
package media
