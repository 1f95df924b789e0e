package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TourType distinguishes scheduled group departures from private tours booked
// for an arbitrary travel date.
type TourType string

const (
	TourTypePrivate TourType = "private"
	TourTypeGroup   TourType = "group"
)

type TourImage struct {
	URL     string `json:"url" bson:"url"`
	Alt     string `json:"alt,omitempty" bson:"alt,omitempty"`
	IsCover bool   `json:"is_cover" bson:"is_cover"`
}

type Tour struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Slug         string             `json:"slug" bson:"slug"`
	Title        string             `json:"title" bson:"title"`
	Type         TourType           `json:"type" bson:"type"`
	Summary      string             `json:"summary,omitempty" bson:"summary,omitempty"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	DurationDays int                `json:"duration_days" bson:"duration_days"`
	BasePrice    float64            `json:"base_price" bson:"base_price"`
	Currency     string             `json:"currency" bson:"currency"`
	Locations    []string           `json:"locations" bson:"locations"`
	Images       []TourImage        `json:"images,omitempty" bson:"images,omitempty"`
	IsActive     bool               `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// TourSummary is the public listing shape.
type TourSummary struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Type         TourType `json:"type"`
	Summary      string   `json:"summary,omitempty"`
	DurationDays int      `json:"duration_days"`
	BasePrice    float64  `json:"base_price"`
	Currency     string   `json:"currency"`
	Locations    []string `json:"locations"`
}

func (t *Tour) ToSummary() *TourSummary {
	locations := t.Locations
	if locations == nil {
		locations = []string{}
	}
	return &TourSummary{
		ID:           t.ID.Hex(),
		Slug:         t.Slug,
		Title:        t.Title,
		Type:         t.Type,
		Summary:      t.Summary,
		DurationDays: t.DurationDays,
		BasePrice:    t.BasePrice,
		Currency:     t.Currency,
		Locations:    locations,
	}
}
