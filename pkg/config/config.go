package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"travelapi/pkg/client"
	"travelapi/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	// BookingHoldWindow is how long a pending_payment booking holds its seats
	// before it lapses. Fixed per deployment, not per booking.
	BookingHoldWindow   time.Duration
	BookingCodeAttempts int
	DepartureLockTTL    time.Duration

	// PerGuestPricing multiplies the unit price by the guest count. Off by
	// default: the flat-per-booking total is the long-standing behavior and
	// some price lists already assume it.
	PerGuestPricing bool

	PaymentWebhookSecret   string
	PaymentCheckoutBaseURL string

	AdminJWTSecret    string
	AdminTokenTTL     time.Duration
	AdminSeedUsername string
	AdminSeedPassword string

	NotifyTimeout time.Duration

	// NotificationsTopic enables the Kafka notification sink when set. An
	// empty topic means events are discarded.
	NotificationsTopic string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// Local development convenience; in deployed environments the variables
	// are set by the platform and the file is absent.
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		BookingHoldWindow:   getEnvDuration(EnvBookingHoldWindow, DefaultBookingHoldWindow),
		BookingCodeAttempts: getEnvNum(EnvBookingCodeAttempts, DefaultBookingCodeAttempts),
		DepartureLockTTL:    getEnvDuration(EnvDepartureLockTTL, DefaultDepartureLockTTL),
		PerGuestPricing:     getEnvBool(EnvPerGuestPricing, DefaultPerGuestPricing),

		PaymentWebhookSecret:   getEnvStr(EnvPaymentWebhookSecret, ""),
		PaymentCheckoutBaseURL: getEnvStr(EnvPaymentCheckoutBaseURL, DefaultPaymentCheckoutBaseURL),

		AdminJWTSecret:    getEnvStr(EnvAdminJWTSecret, ""),
		AdminTokenTTL:     getEnvDuration(EnvAdminTokenTTL, DefaultAdminTokenTTL),
		AdminSeedUsername: getEnvStr(EnvAdminSeedUsername, DefaultAdminSeedUsername),
		AdminSeedPassword: getEnvStr(EnvAdminSeedPassword, ""),

		NotifyTimeout:      getEnvDuration(EnvNotifyTimeout, DefaultNotifyTimeout),
		NotificationsTopic: getEnvStr(EnvNotificationsTopic, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.BookingHoldWindow <= 0 {
		errs = append(errs, fmt.Sprintf("BookingHoldWindow must be positive, got: %s", cfg.BookingHoldWindow))
	}
	if cfg.BookingCodeAttempts <= 0 {
		errs = append(errs, fmt.Sprintf("BookingCodeAttempts must be positive, got: %d", cfg.BookingCodeAttempts))
	}
	if cfg.DepartureLockTTL <= 0 {
		errs = append(errs, fmt.Sprintf("DepartureLockTTL must be positive, got: %s", cfg.DepartureLockTTL))
	}

	if cfg.AdminJWTSecret == "" {
		errs = append(errs, "AdminJWTSecret cannot be empty")
	}
	if cfg.AdminTokenTTL <= 0 {
		errs = append(errs, fmt.Sprintf("AdminTokenTTL must be positive, got: %s", cfg.AdminTokenTTL))
	}

	if cfg.NotifyTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("NotifyTimeout must be positive, got: %s", cfg.NotifyTimeout))
	}
	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"booking_hold_window", cfg.BookingHoldWindow,
		"booking_code_attempts", cfg.BookingCodeAttempts,
		"departure_lock_ttl", cfg.DepartureLockTTL,
		"per_guest_pricing", cfg.PerGuestPricing,
		"payment_webhook_secret_set", cfg.PaymentWebhookSecret != "",
		"payment_checkout_base_url", cfg.PaymentCheckoutBaseURL,
		"admin_jwt_secret_set", cfg.AdminJWTSecret != "",
		"admin_token_ttl", cfg.AdminTokenTTL,
		"admin_seed_username", cfg.AdminSeedUsername,
		"admin_seed_password_set", cfg.AdminSeedPassword != "",
		"notify_timeout", cfg.NotifyTimeout,
		"notifications_topic", cfg.NotificationsTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > MaxPaginationLimit {
		limit = MaxPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
