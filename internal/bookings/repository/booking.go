package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "travelapi/internal/bookings/errors"
	"travelapi/pkg/config"
	"travelapi/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByCode(ctx context.Context, code string) (*model.Booking, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	SeatsInUse(ctx context.Context, tourDateID primitive.ObjectID) (int, error)
	ExpireIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	ConfirmIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	CancelIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid
	}
	return nil
}

func (r *mongoBookingRepository) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by code: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

func (r *mongoBookingRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check booking code: %w", err)
	}

	return count > 0, nil
}

// SeatsInUse sums guest counts over the bookings currently holding seats on a
// departure: every confirmed booking plus every pending_payment booking whose
// hold has not lapsed. Seat usage is always derived from this ledger, there is
// no stored counter to drift.
func (r *mongoBookingRepository) SeatsInUse(ctx context.Context, tourDateID primitive.ObjectID) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	now := time.Now().UTC()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"tour_date_id": tourDateID,
			"$or": []bson.M{
				{"status": model.BookingConfirmed},
				{
					"status":     model.BookingPendingPayment,
					"expires_at": bson.M{"$gt": now},
				},
			},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"seats": bson.M{"$sum": bson.M{"$size": "$guests"}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate seats in use: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Seats int `bson:"seats"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode seats in use: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Seats, nil
}

// ExpireIfPending flips a lapsed pending_payment booking to expired. The
// filter requires the hold to actually be lapsed, so a concurrent payment
// confirmation and a concurrent expiry can never both win.
func (r *mongoBookingRepository) ExpireIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	filter := bson.M{
		"_id":        id,
		"status":     model.BookingPendingPayment,
		"expires_at": bson.M{"$lte": now},
	}
	return r.transition(ctx, filter, model.BookingExpired, now)
}

// ConfirmIfPending flips a pending_payment booking to confirmed, but only
// while its hold is still live. A payment that lands after the hold lapsed
// does not resurrect the booking.
func (r *mongoBookingRepository) ConfirmIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	filter := bson.M{
		"_id":        id,
		"status":     model.BookingPendingPayment,
		"expires_at": bson.M{"$gt": now},
	}
	return r.transition(ctx, filter, model.BookingConfirmed, now)
}

// CancelIfPending flips a pending_payment booking to cancelled regardless of
// its hold state.
func (r *mongoBookingRepository) CancelIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": model.BookingPendingPayment,
	}
	return r.transition(ctx, filter, model.BookingCancelled, now)
}

func (r *mongoBookingRepository) transition(ctx context.Context, filter bson.M, to model.BookingStatus, now time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"updated_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to transition booking to %s: %w", to, err)
	}

	return result.MatchedCount > 0, nil
}
