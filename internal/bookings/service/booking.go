package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	bookingserrors "travelapi/internal/bookings/errors"
	"travelapi/internal/bookings/repository"
	"travelapi/internal/bookings/validator"
	"travelapi/internal/notifications"
	toursrepository "travelapi/internal/tours/repository"
	"travelapi/pkg/bookingcode"
	"travelapi/pkg/clock"
	"travelapi/pkg/config"
	apperrors "travelapi/pkg/errors"
	"travelapi/pkg/model"
	"travelapi/pkg/sanitizer"

	tourserrors "travelapi/internal/tours/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	Create(ctx context.Context, req *model.CreateBookingRequest) (*model.CreateBookingResponse, error)
	GetByCode(ctx context.Context, code string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Cancel(ctx context.Context, code string) (*model.Booking, error)
	ConfirmAfterPayment(ctx context.Context, bookingID primitive.ObjectID) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.DepartureLockRepository
	tourRepo  toursrepository.TourRepository
	dateRepo  toursrepository.TourDateRepository
	validator *validator.BookingValidator
	codes     bookingcode.Generator
	clock     clock.Clock
	notifier  notifications.Notifier
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.DepartureLockRepository,
	tourRepo toursrepository.TourRepository,
	dateRepo toursrepository.TourDateRepository,
	validator *validator.BookingValidator,
	codes bookingcode.Generator,
	clk clock.Clock,
	notifier notifications.Notifier,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		tourRepo:  tourRepo,
		dateRepo:  dateRepo,
		validator: validator,
		codes:     codes,
		clock:     clk,
		notifier:  notifier,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.CreateBookingResponse, error) {
	s.sanitize(req)

	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	tour, err := s.loadTour(ctx, req.TourID)
	if err != nil {
		return nil, err
	}

	if model.TourType(req.TourType) != tour.Type {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Tour %q is a %s tour", tour.Slug, tour.Type))
	}

	now := s.clock.Now()

	switch tour.Type {
	case model.TourTypeGroup:
		return s.createGroupBooking(ctx, req, tour, now)
	default:
		return s.createPrivateBooking(ctx, req, tour, now)
	}
}

func (s *bookingService) createGroupBooking(ctx context.Context, req *model.CreateBookingRequest, tour *model.Tour, now time.Time) (*model.CreateBookingResponse, error) {
	date, err := s.dateRepo.FindOpenByID(ctx, req.TourDateID, tour.ID)
	if err != nil {
		if errors.Is(err, tourserrors.ErrDateNotFound) {
			return nil, apperrors.NotFoundWithID("Tour date", req.TourDateID)
		}
		if errors.Is(err, tourserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid tour date ID format")
		}
		s.cfg.Log.Error("Failed to load tour date", "tour_date_id", req.TourDateID, "error", err)
		return nil, apperrors.Internal("Failed to load tour date", err)
	}

	// Advisory lock closes the window between the capacity read and the
	// insert. Two concurrent requests for the same departure serialize here;
	// the loser gets a conflict and retries.
	lockID, err := s.acquireDepartureLock(ctx, date.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release departure lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	seats := len(req.Guests)

	inUse, err := s.repo.SeatsInUse(ctx, date.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to count seats in use", "tour_date_id", date.ID.Hex(), "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	if inUse+seats > date.Capacity {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Not enough seats available: requested %d, remaining %d",
			seats, max(date.Capacity-inUse, 0),
		))
	}

	booking := s.buildBooking(req, tour, now)
	booking.TourDateID = &date.ID
	booking.Pricing = s.price(date.UnitPrice(tour.BasePrice), tour.Currency, seats)

	return s.persist(ctx, booking)
}

func (s *bookingService) createPrivateBooking(ctx context.Context, req *model.CreateBookingRequest, tour *model.Tour, now time.Time) (*model.CreateBookingResponse, error) {
	if !req.TravelDate.After(now) {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": "travel_date must be in the future",
		})
	}

	travelDate := req.TravelDate.UTC()

	booking := s.buildBooking(req, tour, now)
	booking.TravelDate = &travelDate
	booking.Pricing = s.price(tour.BasePrice, tour.Currency, len(req.Guests))

	return s.persist(ctx, booking)
}

func (s *bookingService) buildBooking(req *model.CreateBookingRequest, tour *model.Tour, now time.Time) *model.Booking {
	return &model.Booking{
		TourID:          tour.ID,
		TourType:        tour.Type,
		Contact:         req.Contact,
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
		Status:          model.BookingPendingPayment,
		ExpiresAt:       now.Add(s.cfg.BookingHoldWindow),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// price builds the immutable pricing snapshot. The flat per-booking total is
// the default; per-guest totals are a deployment option.
func (s *bookingService) price(unitPrice float64, currency string, guests int) model.BookingPricing {
	total := unitPrice
	if s.cfg.PerGuestPricing {
		total = unitPrice * float64(guests)
	}

	return model.BookingPricing{
		Currency: currency,
		Subtotal: total,
		Discount: 0,
		Tax:      0,
		Total:    total,
	}
}

func (s *bookingService) persist(ctx context.Context, booking *model.Booking) (*model.CreateBookingResponse, error) {
	code, err := s.newUniqueCode(ctx)
	if err != nil {
		return nil, err
	}
	booking.Code = code

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "code", booking.Code, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID.Hex(),
		"code", booking.Code,
		"tour_id", booking.TourID.Hex(),
		"tour_type", booking.TourType,
		"guests", booking.SeatCount(),
		"expires_at", booking.ExpiresAt,
	)

	s.notifier.BookingCreated(ctx, booking)

	return &model.CreateBookingResponse{
		BookingID:   booking.ID.Hex(),
		BookingCode: booking.Code,
		Status:      booking.Status,
		ExpiresAt:   booking.ExpiresAt,
		Total:       booking.Pricing.Total,
		Currency:    booking.Pricing.Currency,
	}, nil
}

func (s *bookingService) newUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.cfg.BookingCodeAttempts; attempt++ {
		code, err := s.codes.NewCode()
		if err != nil {
			return "", apperrors.Internal("Failed to generate booking code", err)
		}

		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", apperrors.Internal("Failed to check booking code", err)
		}
		if !exists {
			return code, nil
		}

		s.cfg.Log.Warn("Booking code collision, retrying", "attempt", attempt+1)
	}

	return "", apperrors.Internal(
		"Failed to generate a unique booking code",
		fmt.Errorf("exhausted %d attempts", s.cfg.BookingCodeAttempts),
	)
}

func (s *bookingService) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !bookingcode.Valid(code) {
		return nil, apperrors.InvalidInput("Invalid booking code format")
	}

	booking, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", code)
		}
		s.cfg.Log.Error("Failed to retrieve booking", "code", code, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return s.applyExpiry(ctx, booking)
}

// applyExpiry settles a lapsed hold at read time. There is no background
// sweeper; a pending booking past its deadline becomes expired the first time
// anything looks at it.
func (s *bookingService) applyExpiry(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	if booking.Status != model.BookingPendingPayment {
		return booking, nil
	}

	now := s.clock.Now()
	if !booking.IsExpiredAt(now) {
		return booking, nil
	}

	flipped, err := s.repo.ExpireIfPending(ctx, booking.ID, now)
	if err != nil {
		s.cfg.Log.Error("Failed to expire booking", "code", booking.Code, "error", err)
		return nil, apperrors.Internal("Failed to update booking", err)
	}

	if flipped {
		booking.Status = model.BookingExpired
		booking.UpdatedAt = now
		s.cfg.Log.Info("Booking hold lapsed", "code", booking.Code, "expired_at", booking.ExpiresAt)
		return booking, nil
	}

	// Lost a race against a concurrent confirmation or cancellation; the
	// stored document has the authoritative status.
	fresh, err := s.repo.FindByID(ctx, booking.ID.Hex())
	if err != nil {
		s.cfg.Log.Error("Failed to re-read booking after expiry race", "code", booking.Code, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return fresh, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Cancel releases a pending hold. Cancelling an already cancelled booking is
// a no-op; confirmed and expired bookings cannot be cancelled here.
func (s *bookingService) Cancel(ctx context.Context, code string) (*model.Booking, error) {
	booking, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case model.BookingCancelled:
		return booking, nil
	case model.BookingConfirmed:
		return nil, apperrors.Conflict("Cannot cancel a confirmed booking")
	case model.BookingExpired:
		return nil, apperrors.Conflict("Booking has already expired")
	}

	now := s.clock.Now()
	flipped, err := s.repo.CancelIfPending(ctx, booking.ID, now)
	if err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "code", booking.Code, "error", err)
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}
	if !flipped {
		return nil, apperrors.Conflict("Booking is no longer pending")
	}

	booking.Status = model.BookingCancelled
	booking.UpdatedAt = now

	s.cfg.Log.Info("Booking cancelled", "code", booking.Code)
	s.notifier.BookingCancelled(ctx, booking)

	return booking, nil
}

// ConfirmAfterPayment transitions a booking to confirmed on behalf of a
// settled payment. Confirmation only succeeds while the hold is live; a
// payment that lands late leaves the booking expired.
func (s *bookingService) ConfirmAfterPayment(ctx context.Context, bookingID primitive.ObjectID) (*model.Booking, error) {
	now := s.clock.Now()

	flipped, err := s.repo.ConfirmIfPending(ctx, bookingID, now)
	if err != nil {
		s.cfg.Log.Error("Failed to confirm booking", "booking_id", bookingID.Hex(), "error", err)
		return nil, apperrors.Internal("Failed to confirm booking", err)
	}

	booking, err := s.repo.FindByID(ctx, bookingID.Hex())
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID.Hex())
		}
		s.cfg.Log.Error("Failed to load booking after confirmation", "booking_id", bookingID.Hex(), "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if flipped {
		s.cfg.Log.Info("Booking confirmed", "code", booking.Code)
		s.notifier.BookingConfirmed(ctx, booking)
		return booking, nil
	}

	if booking.Status == model.BookingConfirmed {
		// Already confirmed by an earlier delivery of the same payment.
		return booking, nil
	}

	if booking.Status == model.BookingPendingPayment && booking.IsExpiredAt(now) {
		if _, expireErr := s.repo.ExpireIfPending(ctx, booking.ID, now); expireErr != nil {
			s.cfg.Log.Error("Failed to expire lapsed booking", "code", booking.Code, "error", expireErr)
		}
		booking.Status = model.BookingExpired
	}

	return booking, apperrors.Conflict(fmt.Sprintf(
		"Booking %s cannot be confirmed: status is %s", booking.Code, booking.Status,
	))
}

// --- Helpers ---

func (s *bookingService) sanitize(req *model.CreateBookingRequest) {
	req.TourID = strings.TrimSpace(req.TourID)
	req.TourType = strings.ToLower(strings.TrimSpace(req.TourType))
	req.TourDateID = strings.TrimSpace(req.TourDateID)
	req.Contact.FullName = sanitizer.NormalizeName(req.Contact.FullName)
	req.Contact.Email = sanitizer.NormalizeEmail(req.Contact.Email)
	req.Contact.Phone = strings.TrimSpace(req.Contact.Phone)
	req.Contact.Country = sanitizer.TrimAndNormalize(req.Contact.Country)
	req.SpecialRequests = sanitizer.TrimAndNormalize(req.SpecialRequests)

	for i := range req.Guests {
		req.Guests[i].FullName = sanitizer.NormalizeName(req.Guests[i].FullName)
		req.Guests[i].PassportNo = strings.TrimSpace(req.Guests[i].PassportNo)
	}
}

func (s *bookingService) loadTour(ctx context.Context, tourID string) (*model.Tour, error) {
	tour, err := s.tourRepo.FindActiveByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tour", tourID)
		}
		if errors.Is(err, tourserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid tour ID format")
		}
		s.cfg.Log.Error("Failed to load tour", "tour_id", tourID, "error", err)
		return nil, apperrors.Internal("Failed to load tour", err)
	}
	return tour, nil
}

func (s *bookingService) acquireDepartureLock(ctx context.Context, tourDateID primitive.ObjectID) (string, error) {
	lockID := fmt.Sprintf("departure_lock_%s", tourDateID.Hex())

	lock := &model.DepartureLock{
		ID:        lockID,
		ExpiresAt: s.clock.Now().Add(s.cfg.DepartureLockTTL),
	}

	if err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This departure is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire departure lock", err)
	}

	return lockID, nil
}
