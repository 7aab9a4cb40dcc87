package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderGigaChat = "gigachat"

	DefaultTimeout = 60 * time.Second
)

// PromptTemplate wraps the user's text. %s is replaced verbatim.
const PromptTemplate = "Analyze this mental health input: %s and provide a thoughtful response."

func BuildPrompt(text string) string {
	return fmt.Sprintf(PromptTemplate, text)
}

// Client sends one prompt to a model and returns its raw reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ResponseGenerator turns journal text into a reflective reply.
type ResponseGenerator struct {
	client   Client
	provider string
	timeout  time.Duration
	retry    *RetryHandler
	logger   *zap.Logger
}

type GeneratorOption func(*ResponseGenerator)

func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *ResponseGenerator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithRetryHandler(r *RetryHandler) GeneratorOption {
	return func(g *ResponseGenerator) {
		if r != nil {
			g.retry = r
		}
	}
}

func WithLogger(logger *zap.Logger) GeneratorOption {
	return func(g *ResponseGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewResponseGenerator(provider string, client Client, opts ...GeneratorOption) *ResponseGenerator {
	g := &ResponseGenerator{
		client:   client,
		provider: provider,
		timeout:  DefaultTimeout,
		retry:    NewRetryHandler(RetryConfig{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *ResponseGenerator) Provider() string {
	return g.provider
}

// Generate sends text inside PromptTemplate and returns the trimmed reply.
// Every failure is an *Error.
func (g *ResponseGenerator) Generate(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := BuildPrompt(text)
	start := time.Now()

	var reply string
	err := g.retry.Do(ctx, func() error {
		out, err := g.client.Complete(ctx, prompt)
		if err != nil {
			return wrapError(g.provider, err)
		}
		reply = out
		return nil
	}, func(attempt int, err error) {
		g.logger.Warn("retrying model call",
			zap.String("provider", g.provider),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	})
	if err != nil {
		g.logger.Error("model call failed",
			zap.String("provider", g.provider),
			zap.Stringer("kind", KindOf(err)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", &Error{Kind: KindService, Provider: g.provider, Err: ErrEmptyResponse}
	}

	g.logger.Debug("model call succeeded",
		zap.String("provider", g.provider),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_len", len(reply)),
	)
	return reply, nil
}

// unavailableClient stands in for a provider that could not be configured.
type unavailableClient struct {
	err error
}

func (u unavailableClient) Complete(context.Context, string) (string, error) {
	return "", u.err
}

// Config selects and configures a provider.
type Config struct {
	Provider      string
	APIKey        string
	Model         string
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
	SkipTLSVerify bool
}

// New builds a generator for cfg.Provider. A provider that cannot be built
// (typically a missing key) still yields a generator; its calls fail with
// the construction error so the process keeps serving.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*ResponseGenerator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGemini
	}

	var (
		client Client
		err    error
	)
	switch provider {
	case ProviderGemini:
		client, err = NewGeminiClient(ctx, GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case ProviderOpenAI:
		client, err = NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case ProviderGigaChat:
		client, err = NewGigaChatClient(GigaChatConfig{AuthKey: cfg.APIKey, Model: cfg.Model, SkipTLSVerify: cfg.SkipTLSVerify})
	default:
		err = configError(provider, fmt.Errorf("unknown provider %q", cfg.Provider))
	}
	if err != nil {
		client = unavailableClient{err: wrapConfig(provider, err)}
	}

	gen := NewResponseGenerator(provider, client,
		WithTimeout(cfg.Timeout),
		WithRetryHandler(NewRetryHandler(RetryConfig{MaxRetries: cfg.MaxRetries})),
		WithLogger(logger),
	)
	return gen, err
}

func wrapConfig(provider string, err error) error {
	if KindOf(err) == KindConfig {
		return err
	}
	return configError(provider, err)
}
