// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs the binary; Parse decodes a captured document. Helper methods
// on Result expose audio streams and durations for the normalizer's
// stream selection and output verification.
package ffprobe
