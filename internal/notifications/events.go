package notifications

import "time"

// Event types emitted on the notifications topic.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentReceived  = "payment.received"
	EventPaymentFailed    = "payment.failed"
)

// SchemaVersion is attached to every event so downstream consumers can
// evolve independently.
const SchemaVersion = "1"

// BookingEvent is the payload for booking lifecycle events.
type BookingEvent struct {
	BookingCode  string     `json:"booking_code"`
	TourID       string     `json:"tour_id"`
	TourType     string     `json:"tour_type"`
	Status       string     `json:"status"`
	GuestCount   int        `json:"guest_count"`
	ContactName  string     `json:"contact_name"`
	ContactEmail string     `json:"contact_email"`
	Total        float64    `json:"total"`
	Currency     string     `json:"currency"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// PaymentEvent is the payload for payment lifecycle events.
type PaymentEvent struct {
	BookingCode string    `json:"booking_code"`
	InvoiceID   string    `json:"invoice_id"`
	Provider    string    `json:"provider"`
	Status      string    `json:"status"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}
