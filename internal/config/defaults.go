package config

// Backend and provider identifiers.
const (
	BackendWhisperX   = "whisperx"
	BackendWhisperCPP = "whispercpp"
	BackendOpenAI     = "openai"

	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderClaude     = "claude"
	ProviderOpenRouter = "openrouter"
)

const (
	defaultConfigPath           = "~/.config/contentanalyzer/config.toml"
	projectConfigName           = "contentanalyzer.toml"
	defaultBind                 = "127.0.0.1:8501"
	defaultMaxUploadMB          = 200
	defaultScratchDir           = "~/.cache/contentanalyzer/scratch"
	defaultLogDir               = "~/.local/share/contentanalyzer/logs"
	defaultSecretsFile          = "~/.config/contentanalyzer/secrets.toml"
	defaultEnvFile              = ".env"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultDurationTolerance    = 0.5
	defaultTranscriptionModel   = "base"
	defaultOpenAISTTModel       = "whisper-1"
	defaultVADMethod            = "silero"
	defaultGeminiModel          = "gemini-1.5-pro-latest"
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultClaudeModel          = "claude-3-5-sonnet-latest"
	defaultOpenRouterModel      = "google/gemini-2.5-flash"
	defaultOpenRouterBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterReferer    = "https://github.com/contentanalyzer/contentanalyzer"
	defaultOpenRouterTitle      = "Content Analyzer"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultTranscriptionBackend = BackendWhisperX
	defaultAnalysisProvider     = ProviderGemini
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:        defaultBind,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Paths: Paths{
			ScratchDir:  defaultScratchDir,
			LogDir:      defaultLogDir,
			SecretsFile: defaultSecretsFile,
			EnvFile:     defaultEnvFile,
		},
		Media: Media{
			FFmpegBinary:             defaultFFmpegBinary,
			FFprobeBinary:            defaultFFprobeBinary,
			VerifyDuration:           true,
			DurationToleranceSeconds: defaultDurationTolerance,
		},
		Transcription: Transcription{
			Backend:   defaultTranscriptionBackend,
			VADMethod: defaultVADMethod,
		},
		Analysis: Analysis{
			Provider: defaultAnalysisProvider,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
