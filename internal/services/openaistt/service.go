package openaistt

import (
	"context"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	langpkg "contentanalyzer/internal/language"
	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/services"
)

// DefaultModel is the hosted speech-to-text model.
const DefaultModel = openai.Whisper1

// Config captures settings for the hosted transcription backend.
type Config struct {
	APIKey   string
	Model    string
	Language string
	// BaseURL overrides the API root (e.g. a compatible proxy).
	BaseURL string
}

// Service uploads canonical WAV files to the OpenAI transcription endpoint.
type Service struct {
	client   *openai.Client
	model    string
	language string
	logger   *slog.Logger
}

// NewService builds a client for the configured endpoint.
func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "openai transcription", "api key required", nil)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Service{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: langpkg.ToISO2(cfg.Language),
		logger:   logging.NewComponentLogger(logger, "openai-stt"),
	}, nil
}

// Name identifies the backend in logs and health output.
func (s *Service) Name() string {
	return "openai/" + s.model
}

// Transcribe uploads the WAV file and returns the plain transcript text.
func (s *Service) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if strings.TrimSpace(wavPath) == "" {
		return "", services.Wrap(services.ErrTranscription, "transcribing", "openai", "source path required", nil)
	}
	req := openai.AudioRequest{
		Model:    s.model,
		FilePath: wavPath,
		Language: s.language,
		Format:   openai.AudioResponseFormatJSON,
	}
	logging.WithContext(ctx, s.logger).Debug("openai transcription started", logging.String("model", s.model))
	resp, err := s.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcribing", "openai", "create transcription", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
