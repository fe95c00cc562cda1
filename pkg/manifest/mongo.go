package manifest

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore archives manifests in a MongoDB collection, for deployments
// that need runs to survive restarts and be shared across instances.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the manifests collection.
// An index on run_id enforces one document per run.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection("manifests")
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Save archives a manifest.
func (s *MongoStore) Save(ctx context.Context, m *Manifest) error {
	_, err := s.coll.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("insert manifest %s: %w", m.RunID, err)
	}
	return nil
}

// Get retrieves a manifest by run ID.
func (s *MongoStore) Get(ctx context.Context, runID string) (*Manifest, error) {
	var m Manifest
	err := s.coll.FindOne(ctx, bson.M{"run_id": runID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find manifest %s: %w", runID, err)
	}
	return &m, nil
}

// List returns manifests newest first.
func (s *MongoStore) List(ctx context.Context, limit int) ([]*Manifest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer cur.Close(ctx)

	var out []*Manifest
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode manifests: %w", err)
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
