package sdk

import (
	"context"

	"github.com/soumitsalman/messreview/nlp"
	"github.com/soumitsalman/messreview/store"
	"go.uber.org/zap"
)

const (
	MESSREVIEW = "messreview"
	REVIEWS    = "reviews"
)

var _SORT_BY_CREATED = store.JSON{"created": -1}

// MongoRecorder keeps reviews in the messreview/reviews collection.
type MongoRecorder struct {
	reviews *store.Store[Review]
}

func NewMongoRecorder(ctx context.Context, db_conn_str string, logger *zap.Logger) (*MongoRecorder, error) {
	reviews, err := store.New[Review](ctx, db_conn_str, MESSREVIEW, REVIEWS, logger)
	if err != nil {
		return nil, err
	}
	return &MongoRecorder{reviews: reviews}, nil
}

func (recorder *MongoRecorder) Record(ctx context.Context, review *Review) error {
	return recorder.reviews.Add(ctx, *review)
}

func (recorder *MongoRecorder) Recent(ctx context.Context, limit int) ([]Review, error) {
	return recorder.reviews.Get(ctx, nil, _SORT_BY_CREATED, limit)
}

func (recorder *MongoRecorder) CountBySentiment(ctx context.Context, sentiment nlp.Sentiment) (int64, error) {
	return recorder.reviews.Count(ctx, store.JSON{"sentiment": sentiment})
}

func (recorder *MongoRecorder) Close(ctx context.Context) error {
	return recorder.reviews.Close(ctx)
}
