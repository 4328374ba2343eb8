package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeMedia()
	c.normalizeTranscription()
	if err := c.normalizeAnalysis(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SecretsFile, err = expandPath(strings.TrimSpace(c.Paths.SecretsFile)); err != nil {
		return fmt.Errorf("paths.secrets_file: %w", err)
	}
	if c.Paths.EnvFile, err = expandPath(strings.TrimSpace(c.Paths.EnvFile)); err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = defaultTranscriptionBackend
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		if c.Transcription.Backend == BackendOpenAI {
			c.Transcription.Model = defaultOpenAISTTModel
		} else {
			c.Transcription.Model = defaultTranscriptionModel
		}
	}
	if path := strings.TrimSpace(c.Transcription.ModelPath); path != "" {
		if expanded, err := expandPath(path); err == nil {
			c.Transcription.ModelPath = expanded
		}
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
	c.Transcription.BaseURL = strings.TrimSpace(c.Transcription.BaseURL)
}

func (c *Config) normalizeAnalysis() error {
	c.Analysis.Provider = strings.ToLower(strings.TrimSpace(c.Analysis.Provider))
	if c.Analysis.Provider == "" {
		c.Analysis.Provider = defaultAnalysisProvider
	}
	c.Analysis.Model = strings.TrimSpace(c.Analysis.Model)
	if c.Analysis.Model == "" {
		switch c.Analysis.Provider {
		case ProviderOpenAI:
			c.Analysis.Model = defaultOpenAIModel
		case ProviderClaude:
			c.Analysis.Model = defaultClaudeModel
		case ProviderOpenRouter:
			c.Analysis.Model = defaultOpenRouterModel
		default:
			c.Analysis.Model = defaultGeminiModel
		}
	}
	c.Analysis.BaseURL = strings.TrimSpace(c.Analysis.BaseURL)
	if c.Analysis.BaseURL == "" && c.Analysis.Provider == ProviderOpenRouter {
		c.Analysis.BaseURL = defaultOpenRouterBaseURL
	}
	c.Analysis.APIKeyName = strings.TrimSpace(c.Analysis.APIKeyName)
	if c.Analysis.APIKeyName == "" {
		c.Analysis.APIKeyName = DefaultAPIKeyName(c.Analysis.Provider)
	}
	if c.Analysis.MaxTokens < 0 {
		c.Analysis.MaxTokens = 0
	}
	c.Analysis.Referer = strings.TrimSpace(c.Analysis.Referer)
	if c.Analysis.Referer == "" {
		c.Analysis.Referer = defaultOpenRouterReferer
	}
	c.Analysis.Title = strings.TrimSpace(c.Analysis.Title)
	if c.Analysis.Title == "" {
		c.Analysis.Title = defaultOpenRouterTitle
	}
	if path := strings.TrimSpace(c.Analysis.PromptFile); path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("analysis.prompt_file: %w", err)
		}
		c.Analysis.PromptFile = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
