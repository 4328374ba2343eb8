// Package audio picks the audio stream of an uploaded container that should
// be transcribed.
//
// Ranking favours the container's default stream, then the configured
// transcription language, and pushes commentary or audio-description tracks
// to the back.
package audio
