package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	if !strings.Contains(c.Server.Bind, ":") {
		return fmt.Errorf("server.bind %q must be host:port", c.Server.Bind)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.DurationToleranceSeconds < 0 {
		return errors.New("media.duration_tolerance_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case BackendWhisperX:
		switch c.Transcription.VADMethod {
		case "silero", "pyannote":
		default:
			return fmt.Errorf("transcription.vad_method %q must be silero or pyannote", c.Transcription.VADMethod)
		}
	case BackendWhisperCPP:
		if strings.TrimSpace(c.Transcription.ModelPath) == "" {
			return errors.New("transcription.model_path must be set when transcription.backend is whispercpp")
		}
	case BackendOpenAI:
	default:
		return fmt.Errorf("transcription.backend %q must be one of whisperx, whispercpp, openai", c.Transcription.Backend)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	switch c.Analysis.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderClaude, ProviderOpenRouter:
	default:
		return fmt.Errorf("analysis.provider %q must be one of gemini, openai, claude, openrouter", c.Analysis.Provider)
	}
	if c.Analysis.TimeoutSeconds < 0 {
		return errors.New("analysis.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
