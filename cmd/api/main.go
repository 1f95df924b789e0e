package main

import (
	"context"
	"time"

	adminshandler "travelapi/internal/admins/handler"
	adminsrepository "travelapi/internal/admins/repository"
	adminsservice "travelapi/internal/admins/service"
	bookingshandler "travelapi/internal/bookings/handler"
	bookingsrepository "travelapi/internal/bookings/repository"
	bookingsservice "travelapi/internal/bookings/service"
	bookingsvalidator "travelapi/internal/bookings/validator"
	"travelapi/internal/notifications"
	paymentshandler "travelapi/internal/payments/handler"
	"travelapi/internal/payments/provider"
	paymentsrepository "travelapi/internal/payments/repository"
	paymentsservice "travelapi/internal/payments/service"
	paymentsvalidator "travelapi/internal/payments/validator"
	tourshandler "travelapi/internal/tours/handler"
	toursrepository "travelapi/internal/tours/repository"
	toursservice "travelapi/internal/tours/service"
	"travelapi/pkg/app"
	"travelapi/pkg/bookingcode"
	"travelapi/pkg/clock"
	"travelapi/pkg/config"
	"travelapi/pkg/kafka"
	kafka_config "travelapi/pkg/kafka/config"
	kafka_middleware "travelapi/pkg/kafka/middleware"
	"travelapi/pkg/middleware"
)

const ServiceName = "travel-api"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Travel API service")

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	notifier, producer := initNotifier(cfg)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Warn("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	clk := clock.System()

	// Repositories
	tourRepo := toursrepository.NewMongoTourRepository(cfg)
	dateRepo := toursrepository.NewMongoTourDateRepository(cfg)
	bookingRepo := bookingsrepository.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepository.NewDepartureLockRepository(cfg)
	paymentRepo := paymentsrepository.NewMongoPaymentRepository(cfg)
	adminRepo := adminsrepository.NewMongoAdminRepository(cfg)

	// Services
	tourService := toursservice.NewTourService(tourRepo, dateRepo, bookingRepo, clk, cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		tourRepo,
		dateRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		bookingcode.NewGenerator(),
		clk,
		notifier,
		cfg,
	)
	paymentService := paymentsservice.NewPaymentService(
		paymentRepo,
		bookingService,
		paymentProviders(cfg),
		paymentsvalidator.NewPaymentValidator(cfg.Log),
		clk,
		notifier,
		cfg,
	)
	adminService := adminsservice.NewAdminService(adminRepo, clk, cfg)

	seedAdmin(cfg, adminService)

	// Route guards
	adminGuard := middleware.AdminAuth(cfg.AdminJWTSecret, cfg.Log)
	webhookGuard := middleware.WebhookSignature(cfg.PaymentWebhookSecret, cfg.Log)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		tourshandler.NewTourHandler(tourService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, adminGuard, cfg.Log),
		paymentshandler.NewPaymentHandler(paymentService, webhookGuard, cfg.Log),
		adminshandler.NewAdminHandler(adminService, cfg.Log),
	)
	serverApp.Run()
}

func initNotifier(cfg *config.Config) (notifications.Notifier, *kafka.Producer) {
	if cfg.NotificationsTopic == "" {
		cfg.Log.Info("Notifications disabled, no topic configured")
		return notifications.NewNoopNotifier(), nil
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	cfg.Log.Info("Kafka notifications enabled", "topic", cfg.NotificationsTopic)
	return notifications.NewKafkaNotifier(producer, ServiceName, cfg.NotifyTimeout, cfg.Log), producer
}

func paymentProviders(cfg *config.Config) map[string]provider.Provider {
	sandbox := provider.NewSandbox(cfg.PaymentCheckoutBaseURL)
	return map[string]provider.Provider{
		sandbox.Name(): sandbox,
	}
}

func seedAdmin(cfg *config.Config, adminService adminsservice.AdminService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := adminService.EnsureSeedAdmin(ctx); err != nil {
		cfg.Log.Fatal("Failed to seed admin account", "error", err)
	}
}
