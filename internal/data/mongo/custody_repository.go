// Package mongo provides the MongoDB implementation of the custody ledger
// store. Records carry an expires_at horizon enforced by a TTL index, so
// garbage collection belongs entirely to the storage substrate; the
// repository's job is to renew the horizon on every write.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/artisan-escrow-ledger/internal/domain/custody"
)

const (
	// RecordCollectionName holds one document per custody record
	RecordCollectionName = "custody_records"

	// CounterCollectionName holds the single booking counter document
	CounterCollectionName = "custody_counters"

	// counterKey is the _id of the booking counter document
	counterKey = "booking_counter"
)

// CustodyRepository implements the custody.Repository interface for MongoDB
type CustodyRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewCustodyRepository creates a new MongoDB custody ledger repository
func NewCustodyRepository(logger *slog.Logger, db *mongo.Database) *CustodyRepository {
	return &CustodyRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the TTL indexes that let the substrate reclaim
// lapsed documents. ExpireAfterSeconds of zero means a document is
// eligible the moment its expires_at passes.
func (r *CustodyRepository) EnsureIndexes(ctx context.Context) error {
	ttlIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}

	for _, name := range []string{RecordCollectionName, CounterCollectionName} {
		if _, err := r.db.Collection(name).Indexes().CreateOne(ctx, ttlIndex); err != nil {
			return fmt.Errorf("failed to create TTL index on %s: %w", name, err)
		}
	}

	return nil
}

// NextID atomically increments the booking counter and renews its horizon
// in the same write. The upsert seeds the counter on first use; the atomic
// $inc guarantees distinct, gap-free ids under concurrent opens.
func (r *CustodyRepository) NextID(ctx context.Context, counterExpiresAt time.Time) (int64, error) {
	collection := r.db.Collection(CounterCollectionName)

	filter := bson.M{"_id": counterKey}
	update := bson.M{
		"$inc": bson.M{"next_id": 1},
		"$set": bson.M{"expires_at": counterExpiresAt},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		NextID int64 `bson:"next_id"`
	}
	if err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		r.logger.Error("Failed to increment booking counter", "error", err)
		return 0, fmt.Errorf("failed to increment booking counter: %w", err)
	}

	return counter.NextID, nil
}

// Create stores a new custody record. Returns ErrDuplicateRecord if a
// record with the same id already exists.
func (r *CustodyRepository) Create(ctx context.Context, record *custody.Record) error {
	collection := r.db.Collection(RecordCollectionName)

	if _, err := collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return custody.ErrDuplicateRecord{ID: record.ID}
		}
		r.logger.Error("Failed to create custody record",
			"custody_id", record.ID,
			"error", err)
		return fmt.Errorf("failed to create custody record: %w", err)
	}

	return nil
}

// Get retrieves a custody record by id.
// Returns ErrRecordNotFound if no record exists.
func (r *CustodyRepository) Get(ctx context.Context, id int64) (*custody.Record, error) {
	collection := r.db.Collection(RecordCollectionName)

	var record custody.Record
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, custody.ErrRecordNotFound{ID: id}
		}
		r.logger.Error("Failed to get custody record",
			"custody_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get custody record: %w", err)
	}

	return &record, nil
}

// Transition atomically moves a record from one of the expected statuses
// to the target status, renewing the horizon. The precondition is part of
// the update filter, so the status check and the write are a single
// operation; zero matched documents means the precondition no longer held.
// Both timestamps come from the caller's clock.
func (r *CustodyRepository) Transition(ctx context.Context, id int64, from []custody.Status, to custody.Status, now, expiresAt time.Time) (bool, error) {
	collection := r.db.Collection(RecordCollectionName)

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"updated_at": now,
			"expires_at": expiresAt,
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to transition custody record",
			"custody_id", id,
			"to", string(to),
			"error", err)
		return false, fmt.Errorf("failed to transition custody record: %w", err)
	}

	return result.MatchedCount > 0, nil
}
