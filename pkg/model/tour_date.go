package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TourDateStatus is the admin-controlled lifecycle of a departure. It is
// independent of seat accounting: a date can be open with zero seats left
// until an admin flips it to sold_out.
type TourDateStatus string

const (
	TourDateOpen    TourDateStatus = "open"
	TourDateSoldOut TourDateStatus = "sold_out"
	TourDateClosed  TourDateStatus = "closed"
)

// TourDate is a fixed-capacity, dated departure of a group tour.
type TourDate struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TourID        primitive.ObjectID `json:"tour_id" bson:"tour_id"`
	StartDate     time.Time          `json:"start_date" bson:"start_date"`
	EndDate       time.Time          `json:"end_date" bson:"end_date"`
	Capacity      int                `json:"capacity" bson:"capacity"`
	PriceOverride *float64           `json:"price_override,omitempty" bson:"price_override,omitempty"`
	Status        TourDateStatus     `json:"status" bson:"status"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// UnitPrice resolves the price a booking on this departure pays per unit,
// preferring the departure's override when set.
func (d *TourDate) UnitPrice(basePrice float64) float64 {
	if d.PriceOverride != nil {
		return *d.PriceOverride
	}
	return basePrice
}

// PublicTourDate is the customer-facing departure shape, including how many
// seats are still available right now.
type PublicTourDate struct {
	ID             string    `json:"id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	AvailableSpots int       `json:"available_spots"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
}
