// Package backends builds the process-wide service handles from
// configuration: the audio normalizer, the transcription backend and the
// analysis model. They are constructed once at startup and injected into
// the pipeline.
package backends
