package notifications

import (
	"context"
	"time"

	"travelapi/pkg/kafka"
	"travelapi/pkg/logger"
	"travelapi/pkg/middleware"
	"travelapi/pkg/model"
)

// KafkaNotifier publishes events to the notifications topic. Publishing
// happens in a detached goroutine with its own deadline so a slow broker
// never delays an HTTP response.
type KafkaNotifier struct {
	producer *kafka.Producer
	source   string
	timeout  time.Duration
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, source string, timeout time.Duration, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		source:   source,
		timeout:  timeout,
		log:      log,
	}
}

func (n *KafkaNotifier) BookingCreated(ctx context.Context, booking *model.Booking) {
	n.publishBooking(ctx, EventBookingCreated, booking)
}

func (n *KafkaNotifier) BookingConfirmed(ctx context.Context, booking *model.Booking) {
	n.publishBooking(ctx, EventBookingConfirmed, booking)
}

func (n *KafkaNotifier) BookingCancelled(ctx context.Context, booking *model.Booking) {
	n.publishBooking(ctx, EventBookingCancelled, booking)
}

func (n *KafkaNotifier) PaymentReceived(ctx context.Context, payment *model.Payment, bookingCode string) {
	n.publishPayment(ctx, EventPaymentReceived, payment, bookingCode)
}

func (n *KafkaNotifier) PaymentFailed(ctx context.Context, payment *model.Payment, bookingCode string) {
	n.publishPayment(ctx, EventPaymentFailed, payment, bookingCode)
}

func (n *KafkaNotifier) publishBooking(ctx context.Context, eventType string, booking *model.Booking) {
	event := BookingEvent{
		BookingCode:  booking.Code,
		TourID:       booking.TourID.Hex(),
		TourType:     string(booking.TourType),
		Status:       string(booking.Status),
		GuestCount:   booking.SeatCount(),
		ContactName:  booking.Contact.FullName,
		ContactEmail: booking.Contact.Email,
		Total:        booking.Pricing.Total,
		Currency:     booking.Pricing.Currency,
		OccurredAt:   time.Now().UTC(),
	}
	if booking.Status == model.BookingPendingPayment {
		expiresAt := booking.ExpiresAt
		event.ExpiresAt = &expiresAt
	}

	n.publish(ctx, eventType, booking.Code, event)
}

func (n *KafkaNotifier) publishPayment(ctx context.Context, eventType string, payment *model.Payment, bookingCode string) {
	event := PaymentEvent{
		BookingCode: bookingCode,
		InvoiceID:   payment.InvoiceID,
		Provider:    payment.Provider,
		Status:      string(payment.Status),
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		OccurredAt:  time.Now().UTC(),
	}

	n.publish(ctx, eventType, bookingCode, event)
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType, key string, payload any) {
	requestID := middleware.RequestIDFromContext(ctx)

	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithCorrelationID(requestID).
		WithSchemaVersion(SchemaVersion).
		WithSource(n.source).
		Build()

	// Detached from the request context on purpose. The HTTP response must
	// not wait for the broker, and a cancelled request must not lose the
	// event.
	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.producer.Publish(publishCtx, msg); err != nil {
			n.log.Error("Failed to publish notification event",
				"event_type", eventType,
				"key", key,
				"request_id", requestID,
				"error", err,
			)
		}
	}()
}
