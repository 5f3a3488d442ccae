package records

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Sternrassler/query-cache/pkg/product"
	"github.com/Sternrassler/query-cache/pkg/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the production Store backed by a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	config     Config
}

// Connect opens a MongoDB client and verifies it with a ping.
func Connect(ctx context.Context, opts ...ConfigOption) (*MongoStore, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(cfg.AppName).
		SetMaxPoolSize(cfg.MaxPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return NewMongoStore(client, cfg), nil
}

// NewMongoStore wraps an existing client.
func NewMongoStore(client *mongo.Client, cfg Config) *MongoStore {
	if client == nil {
		panic("mongo client cannot be nil")
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		config:     cfg,
	}
}

// FindByID returns the product with the given ID, or nil if none exists.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*product.Product, error) {
	var found *product.Product
	err := retry.Do(ctx, s.config.Retry, "mongo_find_one", func(ctx context.Context) error {
		ctx, cancel := s.queryContext(ctx)
		defer cancel()

		var p product.Product
		err := s.collection.FindOne(ctx, bson.M{"product_id": id}).Decode(&p)
		if errors.Is(err, mongo.ErrNoDocuments) {
			found = nil
			return nil
		}
		if err != nil {
			return err
		}
		found = &p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mongo find product %q: %w", id, err)
	}
	return found, nil
}

// FindByNameFragment returns up to limit products whose display name contains
// fragment, ignoring case. The fragment is matched literally.
func (s *MongoStore) FindByNameFragment(ctx context.Context, fragment string, limit int) ([]product.Product, error) {
	if limit <= 0 {
		limit = FragmentLimit
	}

	filter := bson.M{"product_display_name": primitive.Regex{
		Pattern: regexp.QuoteMeta(fragment),
		Options: "i",
	}}
	findOpts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "product_id", Value: 1}})

	var products []product.Product
	err := retry.Do(ctx, s.config.Retry, "mongo_find", func(ctx context.Context) error {
		ctx, cancel := s.queryContext(ctx)
		defer cancel()

		cursor, err := s.collection.Find(ctx, filter, findOpts)
		if err != nil {
			return err
		}
		defer func() { _ = cursor.Close(ctx) }()

		batch := make([]product.Product, 0, limit)
		for cursor.Next(ctx) {
			var p product.Product
			if err := cursor.Decode(&p); err != nil {
				return retry.Permanent(err)
			}
			batch = append(batch, p)
		}
		if err := cursor.Err(); err != nil {
			return err
		}
		products = batch
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mongo find products by name %q: %w", fragment, err)
	}
	return products, nil
}

// queryContext bounds a single query by QueryTimeout when one is set.
func (s *MongoStore) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

// Insert adds products to the collection.
func (s *MongoStore) Insert(ctx context.Context, products ...product.Product) error {
	if len(products) == 0 {
		return nil
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	docs := make([]interface{}, len(products))
	for i := range products {
		docs[i] = products[i]
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongo insert products: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the lookups rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "product_display_name", Value: 1}},
		},
	}

	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("mongo create indexes: %w", err)
	}
	return nil
}

// Ping checks that MongoDB is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
