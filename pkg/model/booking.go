package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus follows a one-way state machine:
//
//	pending_payment → confirmed   (payment confirmed before the hold lapses)
//	pending_payment → expired     (hold lapsed; applied passively on read)
//	pending_payment → cancelled   (explicit admin action)
//
// confirmed, cancelled and expired are terminal. There is no transition out
// of cancelled or expired, and a lapsed hold is never resurrected by a late
// payment.
type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "pending_payment"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingCancelled      BookingStatus = "cancelled"
	BookingExpired        BookingStatus = "expired"
)

type BookingContact struct {
	FullName string `json:"full_name" bson:"full_name"`
	Email    string `json:"email" bson:"email"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty"`
	Country  string `json:"country,omitempty" bson:"country,omitempty"`
}

type BookingGuest struct {
	FullName   string `json:"full_name" bson:"full_name"`
	Age        *int   `json:"age,omitempty" bson:"age,omitempty"`
	PassportNo string `json:"passport_no,omitempty" bson:"passport_no,omitempty"`
}

// BookingPricing is a snapshot computed at creation time and never recomputed,
// even if tour prices change afterwards.
type BookingPricing struct {
	Currency string  `json:"currency" bson:"currency"`
	Subtotal float64 `json:"subtotal" bson:"subtotal"`
	Discount float64 `json:"discount" bson:"discount"`
	Tax      float64 `json:"tax" bson:"tax"`
	Total    float64 `json:"total" bson:"total"`
}

type Booking struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Code       string              `json:"code" bson:"code"`
	TourID     primitive.ObjectID  `json:"tour_id" bson:"tour_id"`
	TourDateID *primitive.ObjectID `json:"tour_date_id,omitempty" bson:"tour_date_id,omitempty"`
	TravelDate *time.Time          `json:"travel_date,omitempty" bson:"travel_date,omitempty"`
	TourType   TourType            `json:"tour_type" bson:"tour_type"`

	Contact BookingContact `json:"contact" bson:"contact"`
	Guests  []BookingGuest `json:"guests" bson:"guests"`

	SpecialRequests string         `json:"special_requests,omitempty" bson:"special_requests,omitempty"`
	Pricing         BookingPricing `json:"pricing" bson:"pricing"`

	Status    BookingStatus `json:"status" bson:"status"`
	ExpiresAt time.Time     `json:"expires_at" bson:"expires_at"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// SeatCount is the number of seats this booking consumes against departure
// capacity. Fixed at creation: guests are never added to or removed from an
// existing booking.
func (b *Booking) SeatCount() int {
	return len(b.Guests)
}

// IsExpiredAt reports whether the hold has lapsed as of now. Only meaningful
// for pending_payment bookings.
func (b *Booking) IsExpiredAt(now time.Time) bool {
	return !b.ExpiresAt.After(now)
}

type CreateBookingRequest struct {
	TourID          string         `json:"tour_id" validate:"required"`
	TourType        string         `json:"tour_type" validate:"required"`
	TourDateID      string         `json:"tour_date_id,omitempty"`
	TravelDate      *time.Time     `json:"travel_date,omitempty"`
	Contact         BookingContact `json:"contact"`
	Guests          []BookingGuest `json:"guests" validate:"max=50,dive"`
	SpecialRequests string         `json:"special_requests,omitempty" validate:"omitempty,max=2000"`
}

type CreateBookingResponse struct {
	BookingID   string        `json:"booking_id"`
	BookingCode string        `json:"booking_code"`
	Status      BookingStatus `json:"status"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Total       float64       `json:"total"`
	Currency    string        `json:"currency"`
}

// BookingResponse is the customer-facing booking shape: guests are collapsed
// to a count so passport details never leave the system.
type BookingResponse struct {
	ID         string         `json:"id"`
	Code       string         `json:"code"`
	Status     BookingStatus  `json:"status"`
	ExpiresAt  time.Time      `json:"expires_at"`
	TourID     string         `json:"tour_id"`
	TourDateID string         `json:"tour_date_id,omitempty"`
	TravelDate *time.Time     `json:"travel_date,omitempty"`
	TourType   TourType       `json:"tour_type"`
	Contact    BookingContact `json:"contact"`
	GuestCount int            `json:"guest_count"`
	Pricing    BookingPricing `json:"pricing"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (b *Booking) ToResponse() *BookingResponse {
	resp := &BookingResponse{
		ID:         b.ID.Hex(),
		Code:       b.Code,
		Status:     b.Status,
		ExpiresAt:  b.ExpiresAt,
		TourID:     b.TourID.Hex(),
		TravelDate: b.TravelDate,
		TourType:   b.TourType,
		Contact:    b.Contact,
		GuestCount: b.SeatCount(),
		Pricing:    b.Pricing,
		CreatedAt:  b.CreatedAt,
	}
	if b.TourDateID != nil {
		resp.TourDateID = b.TourDateID.Hex()
	}
	return resp
}
