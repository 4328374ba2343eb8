// Package language canonicalizes the language hints passed to transcription
// backends and read from media stream tags.
//
// Parsing and display names come from golang.org/x/text; a short table covers
// the ISO 639-2/B codes still found in older container metadata.
package language
