package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "travelapi/internal/payments/errors"
	"travelapi/pkg/config"
	"travelapi/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "payments"

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByInvoiceID(ctx context.Context, invoiceID string) (*model.Payment, error)
	MarkPaidIfNot(ctx context.Context, invoiceID string, now time.Time) (bool, error)
	MarkFailed(ctx context.Context, invoiceID string, now time.Time) (bool, error)
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPaymentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		payment.ID = oid
	}
	return nil
}

func (r *mongoPaymentRepository) FindByInvoiceID(ctx context.Context, invoiceID string) (*model.Payment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var payment model.Payment
	err := r.collection.FindOne(ctx, bson.M{"invoice_id": invoiceID}).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by invoice: %w", err)
	}

	return &payment, nil
}

// MarkPaidIfNot settles a payment exactly once. A redelivered webhook matches
// no document and reports false, which is the idempotency gate for the whole
// confirmation flow.
func (r *mongoPaymentRepository) MarkPaidIfNot(ctx context.Context, invoiceID string, now time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"invoice_id": invoiceID,
		"status":     bson.M{"$ne": model.PaymentPaid},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     model.PaymentPaid,
			"updated_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment paid: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// MarkFailed records a provider-reported failure. Paid payments are never
// demoted.
func (r *mongoPaymentRepository) MarkFailed(ctx context.Context, invoiceID string, now time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"invoice_id": invoiceID,
		"status":     bson.M{"$in": []model.PaymentStatus{model.PaymentCreated, model.PaymentPending}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     model.PaymentFailed,
			"updated_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", err)
	}

	return result.MatchedCount > 0, nil
}
