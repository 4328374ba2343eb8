package chatmodel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/services"
)

// Providers served by this package.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// claudeMaxTokens is sent when no limit is configured; the Messages API
// requires one.
const claudeMaxTokens = 4096

// Config selects and parameterizes a chat model.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// Analyzer sends a composed prompt to an eino chat model.
type Analyzer struct {
	model   model.BaseChatModel
	name    string
	timeout time.Duration
	logger  *slog.Logger
}

// New builds the provider's chat model. The handle is created once and
// shared by every run.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Analyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", cfg.Provider, "api key required", nil)
	}
	var (
		chatModel model.BaseChatModel
		err       error
	)
	var maxTokens *int
	if cfg.MaxTokens > 0 {
		maxTokens = &cfg.MaxTokens
	}
	switch cfg.Provider {
	case ProviderGemini:
		clientCfg := &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if cfg.BaseURL != "" {
			clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		}
		client, clientErr := genai.NewClient(ctx, clientCfg)
		if clientErr != nil {
			return nil, services.Wrap(services.ErrConfiguration, "", "gemini", "new client", clientErr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client:    client,
			Model:     cfg.Model,
			MaxTokens: maxTokens,
		})
	case ProviderOpenAI:
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: maxTokens,
			Timeout:   cfg.Timeout,
		})
	case ProviderClaude:
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		tokens := cfg.MaxTokens
		if tokens <= 0 {
			tokens = claudeMaxTokens
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURL,
			MaxTokens: tokens,
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "", "chatmodel", fmt.Sprintf("unsupported provider %q", cfg.Provider), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", cfg.Provider, "new chat model", err)
	}
	return NewWithModel(cfg.Provider+"/"+cfg.Model, chatModel, cfg.Timeout, logger), nil
}

// NewWithModel wraps an existing chat model.
func NewWithModel(name string, chatModel model.BaseChatModel, timeout time.Duration, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		model:   chatModel,
		name:    name,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "analyzer"),
	}
}

// Name identifies the provider and model in logs and health output.
func (a *Analyzer) Name() string {
	return a.name
}

// Analyze performs one blocking generation and returns the reply verbatim.
func (a *Analyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrAnalysis, "analyzing", a.name, "prompt required", nil)
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	logging.WithContext(ctx, a.logger).Debug("generation started",
		logging.String("model", a.name),
		logging.Int("prompt_chars", len(prompt)),
	)
	reply, err := a.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", services.Wrap(services.ErrAnalysis, "analyzing", a.name, "generate", err)
	}
	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return "", services.Wrap(services.ErrAnalysis, "analyzing", a.name, "empty reply", nil)
	}
	return reply.Content, nil
}
