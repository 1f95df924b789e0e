package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	tourserrors "travelapi/internal/tours/errors"
	"travelapi/pkg/config"
	"travelapi/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "tours"

	// listingLimit caps the public catalog listing. The catalog is small and
	// unpaginated on the storefront.
	listingLimit = 50
)

type TourRepository interface {
	FindActive(ctx context.Context) ([]*model.Tour, error)
	FindBySlug(ctx context.Context, slug string) (*model.Tour, error)
	FindActiveByID(ctx context.Context, id string) (*model.Tour, error)
}

type mongoTourRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTourRepository(cfg *config.Config) TourRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTourRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTourRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoTourRepository) FindActive(ctx context.Context) ([]*model.Tour, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetLimit(listingLimit)

	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tours: %w", err)
	}
	defer cursor.Close(ctx)

	var tours []*model.Tour
	if err = cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}

	return tours, nil
}

func (r *mongoTourRepository) FindBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"slug": slug, "is_active": true}

	var tour model.Tour
	err := r.collection.FindOne(ctx, filter).Decode(&tour)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tourserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tour by slug: %w", err)
	}

	return &tour, nil
}

func (r *mongoTourRepository) FindActiveByID(ctx context.Context, id string) (*model.Tour, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tourserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "is_active": true}

	var tour model.Tour
	err = r.collection.FindOne(ctx, filter).Decode(&tour)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tourserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}

	return &tour, nil
}
