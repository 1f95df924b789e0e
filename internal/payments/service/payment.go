package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	bookingsservice "travelapi/internal/bookings/service"
	"travelapi/internal/notifications"
	paymentserrors "travelapi/internal/payments/errors"
	"travelapi/internal/payments/provider"
	"travelapi/internal/payments/repository"
	"travelapi/internal/payments/validator"
	"travelapi/pkg/clock"
	"travelapi/pkg/config"
	apperrors "travelapi/pkg/errors"
	"travelapi/pkg/model"
	"travelapi/pkg/sanitizer"
)

// Webhook statuses the providers report.
const (
	webhookStatusPaid   = "paid"
	webhookStatusFailed = "failed"
)

type PaymentService interface {
	Initiate(ctx context.Context, req *model.CreatePaymentRequest) (*model.CreatePaymentResponse, error)
	HandleWebhook(ctx context.Context, req *model.PaymentWebhookRequest) error
}

type paymentService struct {
	repo      repository.PaymentRepository
	bookings  bookingsservice.BookingService
	providers map[string]provider.Provider
	validator *validator.PaymentValidator
	clock     clock.Clock
	notifier  notifications.Notifier
	cfg       *config.Config
}

func NewPaymentService(
	repo repository.PaymentRepository,
	bookings bookingsservice.BookingService,
	providers map[string]provider.Provider,
	validator *validator.PaymentValidator,
	clk clock.Clock,
	notifier notifications.Notifier,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:      repo,
		bookings:  bookings,
		providers: providers,
		validator: validator,
		clock:     clk,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// Initiate opens an invoice with a provider for a live pending booking. The
// booking's hold is not extended: the invoice is only worth anything while
// the hold lasts.
func (s *paymentService) Initiate(ctx context.Context, req *model.CreatePaymentRequest) (*model.CreatePaymentResponse, error) {
	req.BookingCode = strings.ToUpper(strings.TrimSpace(req.BookingCode))
	req.Provider = sanitizer.NormalizeProvider(req.Provider)

	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Payment validation failed", "error", err)
		return nil, apperrors.Validation("Payment validation failed", map[string]any{"error": err.Error()})
	}

	booking, err := s.bookings.GetByCode(ctx, req.BookingCode)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case model.BookingPendingPayment:
		// Proceed.
	case model.BookingConfirmed:
		return nil, apperrors.Conflict("Booking is already confirmed")
	case model.BookingExpired:
		return nil, apperrors.Conflict("Booking hold has expired")
	case model.BookingCancelled:
		return nil, apperrors.Conflict("Booking has been cancelled")
	default:
		return nil, apperrors.Conflict(fmt.Sprintf("Booking status %s does not allow payment", booking.Status))
	}

	prov, ok := s.providers[req.Provider]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unsupported payment provider: %s", req.Provider))
	}

	invoice, err := prov.CreateInvoice(ctx, booking.Code, booking.Pricing.Total, booking.Pricing.Currency)
	if err != nil {
		s.cfg.Log.Error("Provider failed to create invoice",
			"provider", req.Provider,
			"booking_code", booking.Code,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create payment invoice", err)
	}

	now := s.clock.Now()
	payment := &model.Payment{
		BookingID:   booking.ID,
		Provider:    prov.Name(),
		InvoiceID:   invoice.InvoiceID,
		Amount:      booking.Pricing.Total,
		Currency:    booking.Pricing.Currency,
		Status:      model.PaymentPending,
		CheckoutURL: invoice.CheckoutURL,
		QRText:      invoice.QRText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		s.cfg.Log.Error("Failed to create payment",
			"booking_code", booking.Code,
			"invoice_id", invoice.InvoiceID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create payment", err)
	}

	s.cfg.Log.Info("Payment initiated",
		"booking_code", booking.Code,
		"invoice_id", payment.InvoiceID,
		"provider", payment.Provider,
		"amount", payment.Amount,
		"currency", payment.Currency,
	)

	return payment.ToCreateResponse(), nil
}

// HandleWebhook applies a provider settlement callback. Deliveries are
// at-least-once, so everything here is idempotent: the first "paid" wins,
// replays are acknowledged without side effects.
func (s *paymentService) HandleWebhook(ctx context.Context, req *model.PaymentWebhookRequest) error {
	req.InvoiceID = strings.TrimSpace(req.InvoiceID)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))

	if err := s.validator.ValidateWebhook(req); err != nil {
		s.cfg.Log.Warn("Webhook validation failed", "error", err)
		return apperrors.Validation("Webhook validation failed", map[string]any{"error": err.Error()})
	}

	payment, err := s.repo.FindByInvoiceID(ctx, req.InvoiceID)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Payment", req.InvoiceID)
		}
		s.cfg.Log.Error("Failed to load payment for webhook", "invoice_id", req.InvoiceID, "error", err)
		return apperrors.Internal("Failed to process webhook", err)
	}

	switch req.Status {
	case webhookStatusPaid:
		return s.handlePaid(ctx, payment)
	case webhookStatusFailed:
		return s.handleFailed(ctx, payment)
	default:
		return apperrors.InvalidInput(fmt.Sprintf("Unsupported payment status: %s", req.Status))
	}
}

func (s *paymentService) handlePaid(ctx context.Context, payment *model.Payment) error {
	now := s.clock.Now()

	settled, err := s.repo.MarkPaidIfNot(ctx, payment.InvoiceID, now)
	if err != nil {
		s.cfg.Log.Error("Failed to settle payment", "invoice_id", payment.InvoiceID, "error", err)
		return apperrors.Internal("Failed to process webhook", err)
	}
	if !settled {
		s.cfg.Log.Info("Duplicate paid webhook ignored", "invoice_id", payment.InvoiceID)
		return nil
	}

	payment.Status = model.PaymentPaid

	booking, err := s.bookings.ConfirmAfterPayment(ctx, payment.BookingID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.CodeConflict {
			// Money arrived after the hold lapsed. The payment stays paid for
			// reconciliation; the booking stays expired.
			s.cfg.Log.Warn("Payment settled after booking hold lapsed",
				"invoice_id", payment.InvoiceID,
				"booking_id", payment.BookingID.Hex(),
			)
			s.notifier.PaymentReceived(ctx, payment, bookingCodeOf(booking))
			return nil
		}
		return err
	}

	s.cfg.Log.Info("Payment settled and booking confirmed",
		"invoice_id", payment.InvoiceID,
		"booking_code", booking.Code,
	)
	s.notifier.PaymentReceived(ctx, payment, booking.Code)

	return nil
}

func (s *paymentService) handleFailed(ctx context.Context, payment *model.Payment) error {
	now := s.clock.Now()

	marked, err := s.repo.MarkFailed(ctx, payment.InvoiceID, now)
	if err != nil {
		s.cfg.Log.Error("Failed to mark payment failed", "invoice_id", payment.InvoiceID, "error", err)
		return apperrors.Internal("Failed to process webhook", err)
	}
	if !marked {
		s.cfg.Log.Info("Failed webhook ignored for settled payment", "invoice_id", payment.InvoiceID)
		return nil
	}

	payment.Status = model.PaymentFailed

	s.cfg.Log.Info("Payment failed", "invoice_id", payment.InvoiceID, "provider", payment.Provider)
	s.notifier.PaymentFailed(ctx, payment, "")

	return nil
}

func bookingCodeOf(booking *model.Booking) string {
	if booking == nil {
		return ""
	}
	return booking.Code
}
