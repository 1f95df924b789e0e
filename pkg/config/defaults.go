package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "travel_db"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultBookingHoldWindow   = 30 * time.Minute
	DefaultBookingCodeAttempts = 5
	DefaultDepartureLockTTL    = 10 * time.Second
	DefaultPerGuestPricing     = false

	DefaultPaymentCheckoutBaseURL = "https://pay.sandbox.local"

	DefaultAdminTokenTTL     = 12 * time.Hour
	DefaultAdminSeedUsername = "admin"

	DefaultNotifyTimeout = 5 * time.Second

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	MaxPaginationLimit = 100
)
