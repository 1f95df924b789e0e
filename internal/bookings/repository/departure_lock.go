package repository

import (
	"context"
	"time"

	"travelapi/pkg/config"
	"travelapi/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "departure_locks"

// DepartureLockRepository provides the advisory lock held around a
// departure's capacity check and booking insert.
type DepartureLockRepository interface {
	Create(ctx context.Context, lock *model.DepartureLock) error
	Delete(ctx context.Context, lockID string) error
}

type mongoDepartureLockRepository struct {
	collection *mongo.Collection
}

func NewDepartureLockRepository(cfg *config.Config) DepartureLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDepartureLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Create returns a duplicate key error if the lock is already held. A TTL
// index on expires_at reaps locks left behind by a crashed process.
func (r *mongoDepartureLockRepository) Create(ctx context.Context, lock *model.DepartureLock) error {
	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

// Delete removes an advisory lock
func (r *mongoDepartureLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
