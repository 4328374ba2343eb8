package backends_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"contentanalyzer/internal/backends"
	"contentanalyzer/internal/config"
	"contentanalyzer/internal/credentials"
	"contentanalyzer/internal/services"
	"contentanalyzer/internal/testsupport"
)

type mapProvider map[string]string

func (m mapProvider) Name() string { return "test" }

func (m mapProvider) Lookup(key string) (string, error) { return m[key], nil }

func TestBuildOpenRouterWithWhisperX(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Analysis.Provider = config.ProviderOpenRouter
	cfg.Analysis.APIKeyName = "OPENROUTER_API_KEY"

	set, err := backends.Build(context.Background(), cfg, credentials.Chain{mapProvider{"OPENROUTER_API_KEY": "or-key"}}, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer set.Close()
	if !strings.HasPrefix(set.Transcriber.Name(), "whisperx/") {
		t.Fatalf("unexpected transcriber %q", set.Transcriber.Name())
	}
	if set.Analyzer.Name() != "openrouter/test-model" {
		t.Fatalf("unexpected analyzer %q", set.Analyzer.Name())
	}
	if set.AnalysisKey.Source != "test" {
		t.Fatalf("unexpected credential source %q", set.AnalysisKey.Source)
	}
	if set.Normalizer == nil {
		t.Fatal("expected normalizer")
	}
}

func TestBuildWarnsWhisperXReloadsPerRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Analysis.Provider = config.ProviderOpenRouter
	cfg.Analysis.APIKeyName = "OPENROUTER_API_KEY"
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	chain := credentials.Chain{mapProvider{cfg.Analysis.APIKeyName: "key"}}

	set, err := backends.Build(context.Background(), cfg, chain, logger)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer set.Close()
	out := buf.String()
	if strings.Count(out, "transcriber_per_run_load") != 1 {
		t.Fatalf("expected one per-run load warning, got %s", out)
	}
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("expected warn level, got %s", out)
	}
}

func TestBuildMissingAnalysisKeyIsConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := backends.Build(context.Background(), cfg, credentials.Chain{mapProvider{}}, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !errors.Is(err, credentials.ErrNotFound) {
		t.Fatalf("expected not found cause, got %v", err)
	}
}

func TestBuildOpenAITranscriptionNeedsOpenAIKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.Backend = config.BackendOpenAI
	cfg.Transcription.Model = "whisper-1"
	chain := credentials.Chain{mapProvider{"GOOGLE_API_KEY": "g"}}
	if _, err := backends.Build(context.Background(), cfg, chain, nil); !errors.Is(err, credentials.ErrNotFound) {
		t.Fatalf("expected missing OPENAI_API_KEY, got %v", err)
	}

	chain = credentials.Chain{mapProvider{"GOOGLE_API_KEY": "g", "OPENAI_API_KEY": "o"}}
	cfg.Analysis.Provider = config.ProviderOpenAI
	cfg.Analysis.APIKeyName = "OPENAI_API_KEY"
	set, err := backends.Build(context.Background(), cfg, chain, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if set.Transcriber.Name() != "openai/whisper-1" {
		t.Fatalf("unexpected transcriber %q", set.Transcriber.Name())
	}
	if set.Analyzer.Name() != "openai/test-model" {
		t.Fatalf("unexpected analyzer %q", set.Analyzer.Name())
	}
}

func TestBuildSecretsFileWinsOverEnvironment(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	cfg := testsupport.NewConfig(t, testsupport.WithSecret("OPENROUTER_API_KEY", "from-secrets"))
	cfg.Analysis.Provider = config.ProviderOpenRouter
	cfg.Analysis.APIKeyName = "OPENROUTER_API_KEY"

	set, err := backends.Build(context.Background(), cfg, credentials.ForConfig(cfg), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if set.AnalysisKey.Value != "from-secrets" || set.AnalysisKey.Source != "secrets file" {
		t.Fatalf("unexpected credential %+v", set.AnalysisKey)
	}
}
