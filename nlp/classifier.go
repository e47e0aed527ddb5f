package nlp

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const _POSITIVE_MARKER = "alpha"

var ErrCompletionFailure = errors.New("text completion failed")

// CompletionFailure is returned when the completion service does not produce a usable result.
type CompletionFailure struct {
	Cause error
}

func (err *CompletionFailure) Error() string {
	if err.Cause == nil {
		return ErrCompletionFailure.Error()
	}
	return ErrCompletionFailure.Error() + ": " + err.Cause.Error()
}

func (err *CompletionFailure) Unwrap() error {
	return err.Cause
}

func (err *CompletionFailure) Is(target error) bool {
	return target == ErrCompletionFailure
}

// TokenObserver receives partial output as the model streams it.
type TokenObserver func(token string)

// Completer is the text completion service. It returns the final concatenated completion.
type Completer interface {
	Complete(ctx context.Context, prompt string, observer TokenObserver) (string, error)
}

type ClassifierOption func(classifier *Classifier)

func WithObserver(observer TokenObserver) ClassifierOption {
	return func(classifier *Classifier) {
		classifier.observer = observer
	}
}

func WithTokenCounter(count func(text string) int) ClassifierOption {
	return func(classifier *Classifier) {
		classifier.count_tokens = count
	}
}

func WithLogger(logger *zap.Logger) ClassifierOption {
	return func(classifier *Classifier) {
		classifier.logger = logger
	}
}

// Classifier labels free text as positive or negative using a few-shot prompt.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	config       *PromptConfig
	completer    Completer
	observer     TokenObserver
	count_tokens func(text string) int
	logger       *zap.Logger
}

func NewClassifier(config *PromptConfig, completer Completer, opts ...ClassifierOption) *Classifier {
	if config == nil {
		config = DefaultPromptConfig()
	}
	classifier := &Classifier{
		config:    config,
		completer: completer,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(classifier)
	}
	return classifier
}

func (classifier *Classifier) Config() *PromptConfig {
	return classifier.config
}

func (classifier *Classifier) Classify(ctx context.Context, input string) (*Classification, error) {
	return classifier.ClassifyWithObserver(ctx, input, classifier.observer)
}

// ClassifyWithObserver is Classify with a per-call observer in place of the default one.
func (classifier *Classifier) ClassifyWithObserver(ctx context.Context, input string, observer TokenObserver) (*Classification, error) {
	prompt, err := classifier.config.Render(input)
	if err != nil {
		return nil, err
	}

	completion, err := classifier.completer.Complete(ctx, prompt, observer)
	if err != nil {
		classifier.logger.Warn("[classifier] completion failed", zap.Error(err))
		var failure *CompletionFailure
		if errors.As(err, &failure) {
			return nil, err
		}
		return nil, &CompletionFailure{Cause: err}
	}

	result := &Classification{
		Sentiment:  ParseSentiment(completion),
		Completion: completion,
		Prompt:     prompt,
	}
	if classifier.count_tokens != nil {
		result.PromptTokens = classifier.count_tokens(prompt)
	}
	classifier.logger.Debug("[classifier] classified",
		zap.String("sentiment", result.Sentiment.String()),
		zap.Int("completion_length", len(completion)))
	return result, nil
}

// ParseSentiment maps a raw completion to a sentiment. Any case-insensitive "alpha" means positive.
func ParseSentiment(completion string) Sentiment {
	if strings.Contains(strings.ToLower(completion), _POSITIVE_MARKER) {
		return POSITIVE
	}
	return NEGATIVE
}
