// Package whispercpp runs whisper.cpp in-process as a transcription backend.
//
// The ggml model is loaded once by New and shared for the life of the
// process; each Transcribe call decodes the WAV with go-audio and processes
// it in a new whisper context. The bindings need cgo and libwhisper, so they
// are only compiled with -tags whispercpp; other builds get a stub whose
// constructor reports a configuration error.
package whispercpp
