// Package services defines shared utilities consumed by the pipeline and its
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, pipeline states, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell an
//     unsupported upload apart from decode, transcription, and analysis
//     failures without parsing messages.
//
// Subpackages hold the transcription and analysis backends.
package services
