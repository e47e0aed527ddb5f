package nlp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soumitsalman/messreview/nlp/internal"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	OLLAMA = "ollama"
	OPENAI = "openai"
)

const (
	_DEFAULT_OLLAMA_MODEL = "llama2"
	_DEFAULT_OLLAMA_URL   = "http://localhost:11434"
	_DEFAULT_OPENAI_MODEL = "gpt-4o-mini"
)

type LLMSettings struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// NewLLM creates the langchaingo model for the configured provider. Ollama is the default.
func NewLLM(settings LLMSettings) (llms.Model, error) {
	switch strings.ToLower(settings.Provider) {
	case "", OLLAMA:
		client, err := ollama.New(
			ollama.WithModel(defaultString(settings.Model, _DEFAULT_OLLAMA_MODEL)),
			ollama.WithServerURL(defaultString(settings.BaseURL, _DEFAULT_OLLAMA_URL)))
		if err != nil {
			return nil, fmt.Errorf("creating ollama client: %w", err)
		}
		return client, nil

	case OPENAI:
		opts := []openai.Option{
			openai.WithModel(defaultString(settings.Model, _DEFAULT_OPENAI_MODEL)),
			openai.WithToken(settings.APIKey),
		}
		if settings.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(settings.BaseURL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating openai client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q", settings.Provider)
	}
}

type CompleterOption func(completer *LLMCompleter)

func WithTemperature(temperature float64) CompleterOption {
	return func(completer *LLMCompleter) {
		completer.temperature = temperature
	}
}

// WithTimeout bounds each call to the model. Zero leaves the caller's context as is.
func WithTimeout(timeout time.Duration) CompleterOption {
	return func(completer *LLMCompleter) {
		completer.timeout = timeout
	}
}

// WithRetry retries failed model calls. The default is a single attempt.
func WithRetry(attempts uint, delay time.Duration) CompleterOption {
	return func(completer *LLMCompleter) {
		completer.attempts = attempts
		completer.delay = delay
	}
}

func WithCompleterLogger(logger *zap.Logger) CompleterOption {
	return func(completer *LLMCompleter) {
		completer.logger = logger
	}
}

// LLMCompleter adapts a langchaingo model to the Completer interface.
type LLMCompleter struct {
	llm         llms.Model
	temperature float64
	timeout     time.Duration
	attempts    uint
	delay       time.Duration
	logger      *zap.Logger
}

func NewLLMCompleter(llm llms.Model, opts ...CompleterOption) *LLMCompleter {
	completer := &LLMCompleter{
		llm:      llm,
		attempts: 1,
		delay:    internal.LONG_DELAY,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(completer)
	}
	return completer
}

func (completer *LLMCompleter) Complete(ctx context.Context, prompt string, observer TokenObserver) (string, error) {
	attempt := 0
	return internal.RetryOnFail(
		func() (string, error) {
			attempt++
			if err := ctx.Err(); err != nil {
				return "", err
			}
			completion, err := completer.generate(ctx, prompt, observer)
			if err != nil {
				completer.logger.Warn("[llmdriver] generation failed", zap.Int("attempt", attempt), zap.Error(err))
			}
			return completion, err
		},
		completer.attempts,
		completer.delay)
}

func (completer *LLMCompleter) generate(ctx context.Context, prompt string, observer TokenObserver) (string, error) {
	if completer.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, completer.timeout)
		defer cancel()
	}

	opts := []llms.CallOption{llms.WithTemperature(completer.temperature)}
	if observer != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			observer(string(chunk))
			return nil
		}))
	}
	return llms.GenerateFromSinglePrompt(ctx, completer.llm, prompt, opts...)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
