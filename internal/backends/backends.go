package backends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"contentanalyzer/internal/config"
	"contentanalyzer/internal/credentials"
	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/media/normalize"
	"contentanalyzer/internal/pipeline"
	"contentanalyzer/internal/scratch"
	"contentanalyzer/internal/services"
	"contentanalyzer/internal/services/chatmodel"
	"contentanalyzer/internal/services/llm"
	"contentanalyzer/internal/services/openaistt"
	"contentanalyzer/internal/services/whispercpp"
	"contentanalyzer/internal/services/whisperx"
)

// Transcriber is a named transcription backend.
type Transcriber interface {
	pipeline.Transcriber
	Name() string
}

// Analyzer is a named analysis backend.
type Analyzer interface {
	pipeline.Analyzer
	Name() string
}

// Set holds the long-lived service handles shared by every run.
type Set struct {
	Normalizer  *normalize.Normalizer
	Transcriber Transcriber
	Analyzer    Analyzer
	// AnalysisKey records where the analysis credential came from.
	AnalysisKey credentials.Credential
	closers     []io.Closer
}

// Build constructs the normalizer, transcriber and analyzer described by cfg.
// A missing credential or a model that fails to load is returned as
// services.ErrConfiguration; callers treat it as fatal.
func Build(ctx context.Context, cfg *config.Config, creds credentials.Chain, logger *slog.Logger) (*Set, error) {
	logger = logging.NewComponentLogger(logger, "backends")
	set := &Set{
		Normalizer: normalize.New(normalize.Config{
			FFmpegBinary:      cfg.Media.FFmpegBinary,
			FFprobeBinary:     cfg.Media.FFprobeBinary,
			VerifyDuration:    cfg.Media.VerifyDuration,
			DurationTolerance: time.Duration(cfg.Media.DurationToleranceSeconds * float64(time.Second)),
			Language:          cfg.Transcription.Language,
		}, logger),
	}

	transcriber, closer, err := buildTranscriber(cfg, creds, logger)
	if err != nil {
		return nil, err
	}
	set.Transcriber = transcriber
	if closer != nil {
		set.closers = append(set.closers, closer)
	}

	key, err := resolve(creds, cfg.Analysis.APIKeyName)
	if err != nil {
		_ = set.Close()
		return nil, err
	}
	set.AnalysisKey = key
	analyzer, err := buildAnalyzer(ctx, cfg, key.Value, logger)
	if err != nil {
		_ = set.Close()
		return nil, err
	}
	set.Analyzer = analyzer

	logger.Info("backends ready",
		logging.String("transcriber", transcriber.Name()),
		logging.String("analyzer", analyzer.Name()),
		logging.String("credential_source", key.Source),
	)
	return set, nil
}

// Pipeline wires the set into a run pipeline backed by scratchManager.
func (s *Set) Pipeline(scratchManager *scratch.Manager, logger *slog.Logger) *pipeline.Pipeline {
	return pipeline.New(scratchManager, s.Normalizer, s.Transcriber, s.Analyzer, logger)
}

// Close releases native model handles.
func (s *Set) Close() error {
	var errs []error
	for _, closer := range s.closers {
		errs = append(errs, closer.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

func buildTranscriber(cfg *config.Config, creds credentials.Chain, logger *slog.Logger) (Transcriber, io.Closer, error) {
	tc := cfg.Transcription
	switch tc.Backend {
	case config.BackendWhisperX:
		logger.Warn("whisperx loads its model on every run",
			logging.String("event_type", "transcriber_per_run_load"),
			logging.String("error_hint", "set transcription.backend = \"whispercpp\" in a whispercpp build to keep one model loaded"),
		)
		return whisperx.NewService(whisperx.Config{
			Model:       tc.Model,
			Language:    tc.Language,
			CUDAEnabled: tc.CUDAEnabled,
			VADMethod:   tc.VADMethod,
			HFToken:     tc.HFToken,
		}, logger), nil, nil
	case config.BackendWhisperCPP:
		svc, err := whispercpp.New(whispercpp.Config{ModelPath: tc.ModelPath, Language: tc.Language}, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, svc, nil
	case config.BackendOpenAI:
		key, err := resolve(creds, config.DefaultAPIKeyName(config.ProviderOpenAI))
		if err != nil {
			return nil, nil, err
		}
		svc, err := openaistt.NewService(openaistt.Config{
			APIKey:   key.Value,
			Model:    tc.Model,
			Language: tc.Language,
			BaseURL:  tc.BaseURL,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, nil, nil
	default:
		return nil, nil, services.Wrap(services.ErrConfiguration, "", "transcription", fmt.Sprintf("unknown backend %q", tc.Backend), nil)
	}
}

func buildAnalyzer(ctx context.Context, cfg *config.Config, apiKey string, logger *slog.Logger) (Analyzer, error) {
	ac := cfg.Analysis
	timeout := time.Duration(ac.TimeoutSeconds) * time.Second
	switch ac.Provider {
	case config.ProviderOpenRouter:
		return llm.NewClient(llm.Config{
			APIKey:         apiKey,
			BaseURL:        ac.BaseURL,
			Model:          ac.Model,
			Referer:        ac.Referer,
			Title:          ac.Title,
			TimeoutSeconds: ac.TimeoutSeconds,
			MaxTokens:      ac.MaxTokens,
		}, llm.WithLogger(logger)), nil
	case config.ProviderGemini, config.ProviderOpenAI, config.ProviderClaude:
		return chatmodel.New(ctx, chatmodel.Config{
			Provider:  ac.Provider,
			Model:     ac.Model,
			APIKey:    apiKey,
			BaseURL:   ac.BaseURL,
			MaxTokens: ac.MaxTokens,
			Timeout:   timeout,
		}, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "", "analysis", fmt.Sprintf("unknown provider %q", ac.Provider), nil)
	}
}

func resolve(creds credentials.Chain, name string) (credentials.Credential, error) {
	key, err := creds.Resolve(name)
	if err != nil {
		return credentials.Credential{}, services.Wrap(services.ErrConfiguration, "", "credentials", "", err)
	}
	return key, nil
}
