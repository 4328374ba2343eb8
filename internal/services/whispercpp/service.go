//go:build whispercpp

package whispercpp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	langpkg "contentanalyzer/internal/language"
	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/services"
)

// Service transcribes with a whisper.cpp model loaded once at construction.
type Service struct {
	model    whisper.Model
	language string
	logger   *slog.Logger
	// whisper.cpp contexts share the model's native state.
	mu sync.Mutex
}

// New loads the ggml model. A load failure is a configuration error.
func New(cfg Config, logger *slog.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "whispercpp", "model path required", nil)
	}
	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "whispercpp", "load model "+cfg.ModelPath, err)
	}
	return &Service{
		model:    model,
		language: langpkg.ToISO2(cfg.Language),
		logger:   logging.NewComponentLogger(logger, "whispercpp"),
	}, nil
}

// Name identifies the backend in logs and health output.
func (s *Service) Name() string {
	return "whispercpp"
}

// Transcribe decodes the canonical WAV and runs it through a fresh context.
func (s *Service) Transcribe(ctx context.Context, wavPath string) (string, error) {
	samples, err := LoadSamples(wavPath)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcribing", "whispercpp", "load samples", err)
	}
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcribing", "whispercpp", "", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wctx, err := s.model.NewContext()
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcribing", "whispercpp", "new context", err)
	}
	if s.language != "" && s.model.IsMultilingual() {
		if err := wctx.SetLanguage(s.language); err != nil {
			return "", services.Wrap(services.ErrTranscription, "transcribing", "whispercpp", "set language", err)
		}
	}

	logging.WithContext(ctx, s.logger).Debug("whispercpp processing", logging.Int("samples", len(samples)))
	if err := wctx.Process(samples, nil); err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcribing", "whispercpp", "process", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", services.Wrap(services.ErrTranscription, "transcribing", "whispercpp", "read segment", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the native model.
func (s *Service) Close() error {
	return s.model.Close()
}
