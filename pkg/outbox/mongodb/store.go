// Package mongodb keeps outbox entries in the order database so they commit
// with the order update.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/outbox"
)

const (
	CollectionName = "shipping_outbox"
	// publishedRetention is how long delivered entries are kept for inspection.
	publishedRetention = 7 * 24 * time.Hour
)

// Store implements outbox.Store.
type Store struct {
	entries *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{entries: db.Collection(CollectionName)}
}

// Append inserts entries in order. With a session context it joins that transaction.
func (s *Store) Append(ctx context.Context, entries []*outbox.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]any, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e)
	}
	if _, err := s.entries.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("append %d outbox entries: %w", len(entries), err)
	}
	return nil
}

func (s *Store) Pending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	filter := bson.M{
		"publishedAt": bson.M{"$exists": false},
		"$expr":       bson.M{"$lt": bson.A{"$attempts", "$maxAttempts"}},
	}
	return s.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

func (s *Store) ForOrder(ctx context.Context, orderID string) ([]*outbox.Entry, error) {
	return s.find(ctx, bson.M{"orderId": orderID}, options.Find())
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*outbox.Entry, error) {
	cursor, err := s.entries.Find(ctx, filter, opts.SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*outbox.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode outbox entries: %w", err)
	}
	return entries, nil
}

func (s *Store) MarkPublished(ctx context.Context, id string, at time.Time) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"publishedAt": at}})
}

func (s *Store) RecordFailure(ctx context.Context, id, reason string) error {
	return s.updateOne(ctx, id, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"lastError": reason},
	})
}

func (s *Store) updateOne(ctx context.Context, id string, update bson.M) error {
	result, err := s.entries.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update outbox entry %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox entry %s not found", id)
	}
	return nil
}

// EnsureIndexes supports the relay scan and per-order lookups, and expires
// delivered entries. Undelivered entries have no publishedAt and never expire.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "publishedAt", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("pending_scan"),
		},
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("by_order"),
		},
		{
			Keys:    bson.D{{Key: "publishedAt", Value: 1}},
			Options: options.Index().SetName("published_ttl").SetExpireAfterSeconds(int32(publishedRetention.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("create outbox indexes: %w", err)
	}
	return nil
}
