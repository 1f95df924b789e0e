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

const DateCollectionName = "tour_dates"

type TourDateRepository interface {
	FindOpenByID(ctx context.Context, id string, tourID primitive.ObjectID) (*model.TourDate, error)
	FindOpenByTour(ctx context.Context, tourID primitive.ObjectID, from time.Time) ([]*model.TourDate, error)
}

type mongoTourDateRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTourDateRepository(cfg *config.Config) TourDateRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTourDateRepository{
		cfg:        cfg,
		collection: db.Collection(DateCollectionName),
	}
}

func (r *mongoTourDateRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// FindOpenByID returns the departure only when it is open and belongs to the
// given tour. A date on the wrong tour is treated the same as a missing one.
func (r *mongoTourDateRepository) FindOpenByID(ctx context.Context, id string, tourID primitive.ObjectID) (*model.TourDate, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tourserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":     objectID,
		"tour_id": tourID,
		"status":  model.TourDateOpen,
	}

	var date model.TourDate
	err = r.collection.FindOne(ctx, filter).Decode(&date)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tourserrors.ErrDateNotFound
		}
		return nil, fmt.Errorf("failed to find tour date: %w", err)
	}

	return &date, nil
}

func (r *mongoTourDateRepository) FindOpenByTour(ctx context.Context, tourID primitive.ObjectID, from time.Time) ([]*model.TourDate, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"tour_id":    tourID,
		"status":     model.TourDateOpen,
		"start_date": bson.M{"$gte": from},
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tour dates: %w", err)
	}
	defer cursor.Close(ctx)

	var dates []*model.TourDate
	if err = cursor.All(ctx, &dates); err != nil {
		return nil, fmt.Errorf("failed to decode tour dates: %w", err)
	}

	return dates, nil
}
