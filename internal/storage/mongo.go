package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memdex/merchpipe/internal/types"
)

// CatalogPublisher mirrors the canonical catalog into a MongoDB
// collection for consumers that prefer a queryable store over the
// catalog file. Each publish fully replaces the collection, matching
// the catalog file's replace-on-write semantics.
type CatalogPublisher struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewCatalogPublisher connects to MongoDB and binds the catalog
// collection.
func NewCatalogPublisher(uri, database, collection string, logger *slog.Logger) (*CatalogPublisher, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &CatalogPublisher{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "catalog_publisher"),
	}, nil
}

// Publish replaces the collection contents with the given catalog.
func (p *CatalogPublisher) Publish(ctx context.Context, products []types.CanonicalProduct) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := p.collection.Drop(ctx); err != nil {
		return fmt.Errorf("mongodb drop: %w", err)
	}
	if len(products) == 0 {
		p.logger.Info("catalog published", "products", 0)
		return nil
	}

	docs := make([]any, len(products))
	for i, product := range products {
		docs[i] = product
	}
	if _, err := p.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}

	p.logger.Info("catalog published", "products", len(products))
	return nil
}

// Close disconnects from MongoDB.
func (p *CatalogPublisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.client.Disconnect(ctx)
}
