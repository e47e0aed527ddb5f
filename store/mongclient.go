package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type JSON map[string]any

type Store[T any] struct {
	name       string
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// New connects to the database and verifies the connection before returning the store.
func New[T any](ctx context.Context, connection_string, database, collection string, logger *zap.Logger) (*Store[T], error) {
	client, err := createMongoClient(ctx, connection_string)
	if err != nil {
		return nil, err
	}
	return FromCollection[T](client.Database(database).Collection(collection), logger), nil
}

// FromCollection wraps a collection the caller already holds. Close disconnects the collection's client.
func FromCollection[T any](collection *mongo.Collection, logger *zap.Logger) *Store[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T]{
		name:       fmt.Sprintf("%s/%s", collection.Database().Name(), collection.Name()),
		client:     collection.Database().Client(),
		collection: collection,
		logger:     logger,
	}
}

func (store *Store[T]) Name() string {
	return store.name
}

func (store *Store[T]) Add(ctx context.Context, docs ...T) error {
	// mongo rejects an empty InsertMany
	if len(docs) == 0 {
		store.logger.Debug(fmt.Sprintf("[%s] empty list of docs, nothing to insert", store.name))
		return nil
	}

	items := make([]any, len(docs))
	for i := range docs {
		items[i] = docs[i]
	}
	res, err := store.collection.InsertMany(ctx, items)
	if err != nil {
		store.logger.Warn(fmt.Sprintf("[%s] insertion failed", store.name), zap.Error(err))
		return err
	}
	store.logger.Debug(fmt.Sprintf("[%s] items inserted", store.name), zap.Int("count", len(res.InsertedIDs)))
	return nil
}

func (store *Store[T]) Get(ctx context.Context, filter JSON, sort_by JSON, top_n int) ([]T, error) {
	if filter == nil {
		filter = JSON{}
	}
	find_options := options.Find()
	if len(sort_by) > 0 {
		find_options = find_options.SetSort(sort_by)
	}
	if top_n > 0 {
		find_options = find_options.SetLimit(int64(top_n))
	}
	cursor, err := store.collection.Find(ctx, filter, find_options)
	return store.extractFromCursor(ctx, cursor, err)
}

func (store *Store[T]) Count(ctx context.Context, filter JSON) (int64, error) {
	if filter == nil {
		filter = JSON{}
	}
	return store.collection.CountDocuments(ctx, filter)
}

func (store *Store[T]) Close(ctx context.Context) error {
	return store.client.Disconnect(ctx)
}

func (store *Store[T]) extractFromCursor(ctx context.Context, cursor *mongo.Cursor, err error) ([]T, error) {
	if err != nil {
		store.logger.Warn(fmt.Sprintf("[%s] couldn't retrieve items", store.name), zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	var contents []T
	if err = cursor.All(ctx, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}

func createMongoClient(ctx context.Context, connection_string string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connection_string))
	if err != nil {
		return nil, fmt.Errorf("[mongoclient] connect: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("[mongoclient] ping: %w", err)
	}
	return client, nil
}
