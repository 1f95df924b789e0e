package notifications

import (
	"context"

	"travelapi/pkg/model"
)

// Notifier publishes booking and payment lifecycle events. Implementations
// must never block the request path and must never surface errors to
// callers. Losing a notification is acceptable, losing a booking is not.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingConfirmed(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
	PaymentReceived(ctx context.Context, payment *model.Payment, bookingCode string)
	PaymentFailed(ctx context.Context, payment *model.Payment, bookingCode string)
}

// NoopNotifier discards all events. Used when no broker is configured and
// in tests.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) BookingCreated(ctx context.Context, booking *model.Booking)   {}
func (n *NoopNotifier) BookingConfirmed(ctx context.Context, booking *model.Booking) {}
func (n *NoopNotifier) BookingCancelled(ctx context.Context, booking *model.Booking) {}
func (n *NoopNotifier) PaymentReceived(ctx context.Context, payment *model.Payment, bookingCode string) {
}
func (n *NoopNotifier) PaymentFailed(ctx context.Context, payment *model.Payment, bookingCode string) {
}
