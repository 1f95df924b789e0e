package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvBookingHoldWindow   = "BOOKING_HOLD_WINDOW"
	EnvBookingCodeAttempts = "BOOKING_CODE_ATTEMPTS"
	EnvDepartureLockTTL    = "DEPARTURE_LOCK_TTL"
	EnvPerGuestPricing     = "PER_GUEST_PRICING"

	EnvPaymentWebhookSecret   = "PAYMENT_WEBHOOK_SECRET"
	EnvPaymentCheckoutBaseURL = "PAYMENT_CHECKOUT_BASE_URL"

	EnvAdminJWTSecret    = "ADMIN_JWT_SECRET"
	EnvAdminTokenTTL     = "ADMIN_TOKEN_TTL"
	EnvAdminSeedUsername = "ADMIN_SEED_USERNAME"
	EnvAdminSeedPassword = "ADMIN_SEED_PASSWORD"

	EnvNotifyTimeout      = "NOTIFY_TIMEOUT"
	EnvNotificationsTopic = "NOTIFICATIONS_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
