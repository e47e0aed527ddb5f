package sdk

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/soumitsalman/messreview/nlp"
	"go.uber.org/zap"
)

const (
	_DEFAULT_HISTORY_LIMIT = 20
	_MAX_HISTORY_LIMIT     = 100
)

var ErrHistoryDisabled = errors.New("review history is not configured")

type SentimentClassifier interface {
	Classify(ctx context.Context, input string) (*nlp.Classification, error)
}

// ReviewRecorder keeps analyzed reviews. Recording is auxiliary and never fails an analysis.
type ReviewRecorder interface {
	Record(ctx context.Context, review *Review) error
	Recent(ctx context.Context, limit int) ([]Review, error)
	CountBySentiment(ctx context.Context, sentiment nlp.Sentiment) (int64, error)
}

type ReviewAnalyzer struct {
	classifier SentimentClassifier
	recorder   ReviewRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewReviewAnalyzer wires a classifier with an optional recorder. recorder may be nil.
func NewReviewAnalyzer(classifier SentimentClassifier, recorder ReviewRecorder, logger *zap.Logger) *ReviewAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewAnalyzer{
		classifier: classifier,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
	}
}

func (analyzer *ReviewAnalyzer) HistoryEnabled() bool {
	return analyzer.recorder != nil
}

func (analyzer *ReviewAnalyzer) Analyze(ctx context.Context, text string) (*Review, error) {
	result, err := analyzer.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	review := &Review{
		ID:           uuid.New().String(),
		Text:         text,
		Sentiment:    result.Sentiment,
		Completion:   result.Completion,
		PromptTokens: result.PromptTokens,
		Created:      analyzer.now().Unix(),
	}
	if analyzer.recorder != nil {
		if err := analyzer.recorder.Record(ctx, review); err != nil {
			analyzer.logger.Warn("[analyzer] failed to record review", zap.String("id", review.ID), zap.Error(err))
		}
	}
	return review, nil
}

// History returns the most recent reviews first. limit is clamped to 1..100, 0 means 20.
func (analyzer *ReviewAnalyzer) History(ctx context.Context, limit int) ([]Review, error) {
	if analyzer.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	return analyzer.recorder.Recent(ctx, clampLimit(limit))
}

func (analyzer *ReviewAnalyzer) Stats(ctx context.Context) (*ReviewStats, error) {
	if analyzer.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	positive, err := analyzer.recorder.CountBySentiment(ctx, nlp.POSITIVE)
	if err != nil {
		return nil, err
	}
	negative, err := analyzer.recorder.CountBySentiment(ctx, nlp.NEGATIVE)
	if err != nil {
		return nil, err
	}
	return &ReviewStats{Positive: positive, Negative: negative, Total: positive + negative}, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return _DEFAULT_HISTORY_LIMIT
	case limit > _MAX_HISTORY_LIMIT:
		return _MAX_HISTORY_LIMIT
	default:
		return limit
	}
}
