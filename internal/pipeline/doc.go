// Package pipeline runs one upload through normalization, transcription and
// analysis.
//
// A run moves Idle -> Extracting -> Transcribing -> Analyzing -> Done. An
// upload whose extension is not accepted goes straight to Rejected without
// touching the filesystem; an error in any working state ends in Failed.
// Nothing is retried. The upload and the canonical WAV live in a scratch
// scope whose release is deferred as soon as the scope exists, so no temp
// file outlives the run.
//
// The normalizer, transcriber and analyzer are built once by the caller and
// shared across runs; Pipeline keeps no per-run state.
package pipeline
