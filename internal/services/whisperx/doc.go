// Package whisperx runs WhisperX (via uvx) as a transcription backend.
//
// Transcribe takes a canonical WAV path, invokes WhisperX with JSON output
// into a sibling directory, and joins the segment texts. Model, CUDA, VAD and
// language settings come from Config. Tests replace the subprocess with
// WithCommandRunner.
package whisperx
