package model

import "time"

// DepartureLock is an advisory lock document held while a booking's capacity
// check and insert run for a given departure. The _id encodes the departure,
// so a concurrent insert fails with a duplicate-key error. A TTL index on
// expires_at reaps locks orphaned by a crash.
type DepartureLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
