package preflight

import (
	"context"

	"contentanalyzer/internal/config"
	"contentanalyzer/internal/credentials"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to the configured backends.
func RunAll(ctx context.Context, cfg *config.Config, creds credentials.Chain) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCredential("Analysis API key ("+cfg.Analysis.Provider+")", creds, cfg.Analysis.APIKeyName),
	}

	switch cfg.Transcription.Backend {
	case config.BackendWhisperCPP:
		results = append(results, CheckModelFile("whisper.cpp model", cfg.Transcription.ModelPath))
	case config.BackendOpenAI:
		results = append(results, CheckCredential("Transcription API key (openai)", creds, config.DefaultAPIKeyName(config.ProviderOpenAI)))
	}

	if ctx.Err() != nil {
		results = append(results, Result{Name: "Preflight", Detail: ctx.Err().Error()})
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
