package whispercpp

// Config captures settings for the in-process whisper.cpp backend.
type Config struct {
	// ModelPath is a ggml model file (e.g. ggml-base.bin).
	ModelPath string
	// Language is an optional hint; empty lets whisper.cpp detect it.
	Language string
}
