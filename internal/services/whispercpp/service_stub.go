//go:build !whispercpp

package whispercpp

import (
	"context"
	"log/slog"

	"contentanalyzer/internal/services"
)

// Service is unavailable in builds without the whispercpp tag.
type Service struct{}

// New always fails: the whisper.cpp bindings are not compiled in.
func New(Config, *slog.Logger) (*Service, error) {
	return nil, services.Wrap(services.ErrConfiguration, "", "whispercpp", "backend not compiled in; rebuild with -tags whispercpp or use whisperx or openai", nil)
}

func (s *Service) Name() string { return "whispercpp" }

func (s *Service) Transcribe(context.Context, string) (string, error) {
	return "", services.Wrap(services.ErrTranscription, "transcribing", "whispercpp", "backend unavailable", nil)
}

func (s *Service) Close() error { return nil }
