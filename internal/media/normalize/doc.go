// Package normalize converts an accepted upload into the canonical waveform
// used for transcription: a 16 kHz, mono, 16-bit PCM WAV file.
//
// Normalize probes the container with ffprobe, picks the primary audio stream,
// runs ffmpeg, and then reads the result back with go-audio/wav to confirm the
// format and, optionally, that its duration matches the source.
package normalize
