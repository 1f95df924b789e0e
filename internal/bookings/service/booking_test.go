package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	bookingserrors "travelapi/internal/bookings/errors"
	"travelapi/internal/bookings/validator"
	tourserrors "travelapi/internal/tours/errors"
	"travelapi/pkg/clock"
	"travelapi/pkg/config"
	apperrors "travelapi/pkg/errors"
	"travelapi/pkg/logger"
	"travelapi/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// --- Mocks ---

type mockBookingRepo struct {
	createFn           func(ctx context.Context, booking *model.Booking) error
	findByCodeFn       func(ctx context.Context, code string) (*model.Booking, error)
	findByIDFn         func(ctx context.Context, id string) (*model.Booking, error)
	findAllFn          func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	countFn            func(ctx context.Context) (int64, error)
	codeExistsFn       func(ctx context.Context, code string) (bool, error)
	seatsInUseFn       func(ctx context.Context, tourDateID primitive.ObjectID) (int, error)
	expireIfPendingFn  func(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	confirmIfPendingFn func(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	cancelIfPendingFn  func(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)

	created []*model.Booking
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFn != nil {
		return m.createFn(ctx, booking)
	}
	booking.ID = primitive.NewObjectID()
	m.created = append(m.created, booking)
	return nil
}

func (m *mockBookingRepo) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	if m.findByCodeFn != nil {
		return m.findByCodeFn(ctx, code)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockBookingRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockBookingRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	if m.codeExistsFn != nil {
		return m.codeExistsFn(ctx, code)
	}
	return false, nil
}

func (m *mockBookingRepo) SeatsInUse(ctx context.Context, tourDateID primitive.ObjectID) (int, error) {
	if m.seatsInUseFn != nil {
		return m.seatsInUseFn(ctx, tourDateID)
	}
	return 0, nil
}

func (m *mockBookingRepo) ExpireIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	if m.expireIfPendingFn != nil {
		return m.expireIfPendingFn(ctx, id, now)
	}
	return false, nil
}

func (m *mockBookingRepo) ConfirmIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	if m.confirmIfPendingFn != nil {
		return m.confirmIfPendingFn(ctx, id, now)
	}
	return false, nil
}

func (m *mockBookingRepo) CancelIfPending(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	if m.cancelIfPendingFn != nil {
		return m.cancelIfPendingFn(ctx, id, now)
	}
	return false, nil
}

type mockLockRepo struct {
	createFn func(ctx context.Context, lock *model.DepartureLock) error

	mu       sync.Mutex
	acquired []string
	released []string
}

func (m *mockLockRepo) Create(ctx context.Context, lock *model.DepartureLock) error {
	if m.createFn != nil {
		return m.createFn(ctx, lock)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquired = append(m.acquired, lock.ID)
	return nil
}

func (m *mockLockRepo) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, lockID)
	return nil
}

type mockTourRepo struct {
	findActiveByIDFn func(ctx context.Context, id string) (*model.Tour, error)
}

func (m *mockTourRepo) FindActive(ctx context.Context) ([]*model.Tour, error) {
	return nil, nil
}

func (m *mockTourRepo) FindBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	return nil, tourserrors.ErrNotFound
}

func (m *mockTourRepo) FindActiveByID(ctx context.Context, id string) (*model.Tour, error) {
	if m.findActiveByIDFn != nil {
		return m.findActiveByIDFn(ctx, id)
	}
	return nil, tourserrors.ErrNotFound
}

type mockDateRepo struct {
	findOpenByIDFn func(ctx context.Context, id string, tourID primitive.ObjectID) (*model.TourDate, error)
}

func (m *mockDateRepo) FindOpenByID(ctx context.Context, id string, tourID primitive.ObjectID) (*model.TourDate, error) {
	if m.findOpenByIDFn != nil {
		return m.findOpenByIDFn(ctx, id, tourID)
	}
	return nil, tourserrors.ErrDateNotFound
}

func (m *mockDateRepo) FindOpenByTour(ctx context.Context, tourID primitive.ObjectID, from time.Time) ([]*model.TourDate, error) {
	return nil, nil
}

// stubCodes hands out a fixed sequence of booking codes.
type stubCodes struct {
	codes []string
	next  int
}

func (s *stubCodes) NewCode() (string, error) {
	code := s.codes[s.next%len(s.codes)]
	s.next++
	return code, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *recordingNotifier) BookingCreated(ctx context.Context, booking *model.Booking) {
	n.record("booking.created")
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, booking *model.Booking) {
	n.record("booking.confirmed")
}

func (n *recordingNotifier) BookingCancelled(ctx context.Context, booking *model.Booking) {
	n.record("booking.cancelled")
}

func (n *recordingNotifier) PaymentReceived(ctx context.Context, payment *model.Payment, bookingCode string) {
	n.record("payment.received")
}

func (n *recordingNotifier) PaymentFailed(ctx context.Context, payment *model.Payment, bookingCode string) {
	n.record("payment.failed")
}

// --- Fixtures ---

type fixture struct {
	repo     *mockBookingRepo
	locks    *mockLockRepo
	tours    *mockTourRepo
	dates    *mockDateRepo
	clk      *clock.Fixed
	notifier *recordingNotifier
	cfg      *config.Config
	svc      BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     &mockBookingRepo{},
		locks:    &mockLockRepo{},
		tours:    &mockTourRepo{},
		dates:    &mockDateRepo{},
		clk:      clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		notifier: &recordingNotifier{},
		cfg: &config.Config{
			BookingHoldWindow:   30 * time.Minute,
			BookingCodeAttempts: 3,
			DepartureLockTTL:    10 * time.Second,
			Log:                 logger.New(logger.Config{Level: "error", Format: logger.JSON}),
		},
	}
	f.rebuild()
	return f
}

func (f *fixture) rebuild() {
	f.svc = NewBookingService(
		f.repo,
		f.locks,
		f.tours,
		f.dates,
		validator.NewBookingValidator(f.cfg.Log),
		&stubCodes{codes: []string{"BK-AAAA22", "BK-BBBB33", "BK-CCCC44"}},
		f.clk,
		f.notifier,
		f.cfg,
	)
}

func groupTour() *model.Tour {
	return &model.Tour{
		ID:        primitive.NewObjectID(),
		Slug:      "sahara-trek",
		Title:     "Sahara Trek",
		Type:      model.TourTypeGroup,
		BasePrice: 1200,
		Currency:  "USD",
		IsActive:  true,
	}
}

func privateTour() *model.Tour {
	return &model.Tour{
		ID:        primitive.NewObjectID(),
		Slug:      "atlas-private",
		Title:     "Atlas Private",
		Type:      model.TourTypePrivate,
		BasePrice: 800,
		Currency:  "USD",
		IsActive:  true,
	}
}

func openDate(tour *model.Tour, capacity int) *model.TourDate {
	return &model.TourDate{
		ID:        primitive.NewObjectID(),
		TourID:    tour.ID,
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
		Capacity:  capacity,
		Status:    model.TourDateOpen,
	}
}

func (f *fixture) serveTour(tour *model.Tour) {
	f.tours.findActiveByIDFn = func(ctx context.Context, id string) (*model.Tour, error) {
		if id == tour.ID.Hex() {
			return tour, nil
		}
		return nil, tourserrors.ErrNotFound
	}
}

func (f *fixture) serveDate(date *model.TourDate) {
	f.dates.findOpenByIDFn = func(ctx context.Context, id string, tourID primitive.ObjectID) (*model.TourDate, error) {
		if id == date.ID.Hex() && tourID == date.TourID {
			return date, nil
		}
		return nil, tourserrors.ErrDateNotFound
	}
}

func groupRequest(tour *model.Tour, date *model.TourDate, guests int) *model.CreateBookingRequest {
	req := &model.CreateBookingRequest{
		TourID:     tour.ID.Hex(),
		TourType:   "group",
		TourDateID: date.ID.Hex(),
		Contact: model.BookingContact{
			FullName: "Dana Levi",
			Email:    "dana@example.com",
		},
	}
	for i := 0; i < guests; i++ {
		req.Guests = append(req.Guests, model.BookingGuest{FullName: "Guest Name"})
	}
	return req
}

func privateRequest(tour *model.Tour, travelDate time.Time, guests int) *model.CreateBookingRequest {
	req := &model.CreateBookingRequest{
		TourID:     tour.ID.Hex(),
		TourType:   "private",
		TravelDate: &travelDate,
		Contact: model.BookingContact{
			FullName: "Dana Levi",
			Email:    "dana@example.com",
		},
	}
	for i := 0; i < guests; i++ {
		req.Guests = append(req.Guests, model.BookingGuest{FullName: "Guest Name"})
	}
	return req
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("expected error code %s, got %s (%v)", code, appErr.Code, err)
	}
}

// --- Create ---

func TestCreateGroupBooking(t *testing.T) {
	f := newFixture(t)
	tour := groupTour()
	date := openDate(tour, 10)
	f.serveTour(tour)
	f.serveDate(date)
	f.repo.seatsInUseFn = func(ctx context.Context, tourDateID primitive.ObjectID) (int, error) {
		return 4, nil
	}

	resp, err := f.svc.Create(context.Background(), groupRequest(tour, date, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.BookingCode != "BK-AAAA22" {
		t.Errorf("expected code BK-AAAA22, got %s", resp.BookingCode)
	}
	if resp.Status != model.BookingPendingPayment {
		t.Errorf("expected status pending_payment, got %s", resp.Status)
	}
	wantExpiry := f.clk.Now().Add(30 * time.Minute)
	if !resp.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %s, got %s", wantExpiry, resp.ExpiresAt)
	}
	if resp.Total != 1200 || resp.Currency != "USD" {
		t.Errorf("expected flat total 1200 USD, got %v %s", resp.Total, resp.Currency)
	}

	if len(f.repo.created) != 1 {
		t.Fatalf("expected one booking persisted, got %d", len(f.repo.created))
	}
	booking := f.repo.created[0]
	if booking.TourDateID == nil || *booking.TourDateID != date.ID {
		t.Error("expected booking to reference the departure")
	}
	if booking.SeatCount() != 2 {
		t.Errorf("expected 2 seats, got %d", booking.SeatCount())
	}

	wantLock := "departure_lock_" + date.ID.Hex()
	if len(f.locks.acquired) != 1 || f.locks.acquired[0] != wantLock {
		t.Errorf("expected lock %s to be acquired, got %v", wantLock, f.locks.acquired)
	}
	if len(f.locks.released) != 1 || f.locks.released[0] != wantLock {
		t.Errorf("expected lock %s to be released, got %v", wantLock, f.locks.released)
	}

	if events := f.notifier.Events(); len(events) != 1 || events[0] != "booking.created" {
		t.Errorf("expected booking.created notification, got %v", events)
	}
}

func TestCreateGroupBookingFillsLastSeats(t *testing.T) {
	f := newFixture(t)
	tour := groupTour()
	date := openDate(tour, 4)
	f.serveTour(tour)
	f.serveDate(date)
	f.repo.seatsInUseFn = func(ctx context.Context, tourDateID primitive.ObjectID) (int, error) {
		return 2, nil
	}

	// 2 in use + 2 requested == capacity 4; exact fill is allowed.
	if _, err := f.svc.Create(context.Background(), groupRequest(tour, date, 2)); err != nil {
		t.Fatalf("expected exact fill to succeed, got: %v", err)
	}
}

func TestCreateGroupBookingOverCapacity(t *testing.T) {
	f := newFixture(t)
	tour := groupTour()
	date := openDate(tour, 4)
	f.serveTour(tour)
	f.serveDate(date)
	f.repo.seatsInUseFn = func(ctx context.Context, tourDateID primitive.ObjectID) (int, error) {
		return 3, nil
	}

	_, err := f.svc.Create(context.Background(), groupRequest(tour, date, 2))
	assertAppErrorCode(t, err, apperrors.CodeConflict)

	if len(f.repo.created) != 0 {
		t.Error("expected no booking to be persisted")
	}
	if len(f.locks.released) != 1 {
		t.Error("expected the departure lock to be released on the conflict path")
	}
}

func TestCreateGroupBookingLockHeld(t *testing.T) {
	f := newFixture(t)
	tour := groupTour()
	date := openDate(tour, 10)
	f.serveTour(tour)
	f.serveDate(date)
	f.locks.createFn = func(ctx context.Context, lock *model.DepartureLock) error {
		return mongo.CommandError{Code: 11000}
	}

	_, err := f.svc.Create(context.Background(), groupRequest(tour, date, 1))
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

func TestCreateGroupBookingUnknownDate(t *testing.T) {
	f := newFixture(t)
	tour := groupTour()
	f.serveTour(tour)

	req := groupRequest(tour, openDate(tour, 10), 1)
	// No date served by the repo; lookup fails.
	_, err := f.svc.Create(context.Background(), req)
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestCreatePrivateBooking(t *testing.T) {
	f := newFixture(t)
	tour := privateTour()
	f.serveTour(tour)

	travelDate := f.clk.Now().Add(14 * 24 * time.Hour)
	resp, err := f.svc.Create(context.Background(), privateRequest(tour, travelDate, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Total != 800 {
		t.Errorf("expected flat total 800, got %v", resp.Total)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected one booking persisted, got %d", len(f.repo.created))
	}
	booking := f.repo.created[0]
	if booking.TravelDate == nil || !booking.TravelDate.Equal(travelDate) {
		t.Error("expected booking to carry the travel date")
	}
	if len(f.locks.acquired) != 0 {
		t.Error("private bookings must not take a departure lock")
	}
}

func TestCreatePrivateBookingPastTravelDate(t *testing.T) {
	f := newFixture(t)
	tour := privateTour()
	f.serveTour(tour)

	past := f.clk.Now().Add(-time.Hour)
	_, err := f.svc.Create(context.Background(), privateRequest(tour, past, 1))
	assertAppErrorCode(t, err, apperrors.CodeValidation)
}

func TestCreatePerGuestPricing(t *testing.T) {
	f := newFixture(t)
	f.cfg.PerGuestPricing = true
	f.rebuild()

	tour := privateTour()
	f.serveTour(tour)

	travelDate := f.clk.Now().Add(48 * time.Hour)
	resp, err := f.svc.Create(context.Background(), privateRequest(tour, travelDate, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 2400 {
		t.Errorf("expected per-guest total 2400, got %v", resp.Total)
	}
}

func TestCreateGroupBookingUsesPriceOverride(t *testing.T) {
	f := newFixture(t)
	tour := groupTour()
	date := openDate(tour, 10)
	override := 999.0
	date.PriceOverride = &override
	f.serveTour(tour)
	f.serveDate(date)

	resp, err := f.svc.Create(context.Background(), groupRequest(tour, date, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 999 {
		t.Errorf("expected overridden total 999, got %v", resp.Total)
	}
}

func TestCreateTourTypeMismatch(t *testing.T) {
	f := newFixture(t)
	tour := groupTour()
	f.serveTour(tour)

	travelDate := f.clk.Now().Add(48 * time.Hour)
	_, err := f.svc.Create(context.Background(), privateRequest(tour, travelDate, 1))
	assertAppErrorCode(t, err, apperrors.CodeInvalidInput)
}

func TestCreateUnknownTour(t *testing.T) {
	f := newFixture(t)
	tour := groupTour()
	date := openDate(tour, 10)
	// Tour repo serves nothing.

	_, err := f.svc.Create(context.Background(), groupRequest(tour, date, 1))
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	f := newFixture(t)
	tour := privateTour()
	f.serveTour(tour)
	f.repo.codeExistsFn = func(ctx context.Context, code string) (bool, error) {
		return code == "BK-AAAA22", nil
	}

	travelDate := f.clk.Now().Add(48 * time.Hour)
	resp, err := f.svc.Create(context.Background(), privateRequest(tour, travelDate, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.BookingCode != "BK-BBBB33" {
		t.Errorf("expected the second code after a collision, got %s", resp.BookingCode)
	}
}

func TestCreateFailsWhenCodesExhausted(t *testing.T) {
	f := newFixture(t)
	tour := privateTour()
	f.serveTour(tour)
	f.repo.codeExistsFn = func(ctx context.Context, code string) (bool, error) {
		return true, nil
	}

	travelDate := f.clk.Now().Add(48 * time.Hour)
	_, err := f.svc.Create(context.Background(), privateRequest(tour, travelDate, 1))
	assertAppErrorCode(t, err, apperrors.CodeInternal)
}

// --- GetByCode ---

func TestGetByCodeInvalidFormat(t *testing.T) {
	f := newFixture(t)

	for _, code := range []string{"", "nonsense", "BK-ABC1EF", "bk_123456"} {
		if _, err := f.svc.GetByCode(context.Background(), code); err == nil {
			t.Errorf("expected error for code %q", code)
		} else {
			assertAppErrorCode(t, err, apperrors.CodeInvalidInput)
		}
	}
}

func TestGetByCodeNormalizesInput(t *testing.T) {
	f := newFixture(t)
	var askedFor string
	f.repo.findByCodeFn = func(ctx context.Context, code string) (*model.Booking, error) {
		askedFor = code
		return nil, bookingserrors.ErrNotFound
	}

	_, err := f.svc.GetByCode(context.Background(), "  bk-abc234  ")
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
	if askedFor != "BK-ABC234" {
		t.Errorf("expected lookup with normalized code, got %q", askedFor)
	}
}

func TestGetByCodeExpiresLapsedHold(t *testing.T) {
	f := newFixture(t)
	booking := &model.Booking{
		ID:        primitive.NewObjectID(),
		Code:      "BK-ABC234",
		Status:    model.BookingPendingPayment,
		ExpiresAt: f.clk.Now().Add(-time.Minute),
	}
	f.repo.findByCodeFn = func(ctx context.Context, code string) (*model.Booking, error) {
		return booking, nil
	}
	expired := false
	f.repo.expireIfPendingFn = func(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
		expired = true
		return true, nil
	}

	got, err := f.svc.GetByCode(context.Background(), "BK-ABC234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expired {
		t.Error("expected the lapsed hold to be flipped")
	}
	if got.Status != model.BookingExpired {
		t.Errorf("expected status expired, got %s", got.Status)
	}
}

func TestGetByCodeKeepsLiveHold(t *testing.T) {
	f := newFixture(t)
	booking := &model.Booking{
		ID:        primitive.NewObjectID(),
		Code:      "BK-ABC234",
		Status:    model.BookingPendingPayment,
		ExpiresAt: f.clk.Now().Add(10 * time.Minute),
	}
	f.repo.findByCodeFn = func(ctx context.Context, code string) (*model.Booking, error) {
		return booking, nil
	}
	f.repo.expireIfPendingFn = func(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
		t.Error("a live hold must not be expired")
		return false, nil
	}

	got, err := f.svc.GetByCode(context.Background(), "BK-ABC234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.BookingPendingPayment {
		t.Errorf("expected status pending_payment, got %s", got.Status)
	}
}

func TestGetByCodeExpiryRaceRereads(t *testing.T) {
	f := newFixture(t)
	id := primitive.NewObjectID()
	stale := &model.Booking{
		ID:        id,
		Code:      "BK-ABC234",
		Status:    model.BookingPendingPayment,
		ExpiresAt: f.clk.Now().Add(-time.Minute),
	}
	f.repo.findByCodeFn = func(ctx context.Context, code string) (*model.Booking, error) {
		return stale, nil
	}
	// A concurrent confirmation won; the conditional expiry matches nothing.
	f.repo.expireIfPendingFn = func(ctx context.Context, bid primitive.ObjectID, now time.Time) (bool, error) {
		return false, nil
	}
	f.repo.findByIDFn = func(ctx context.Context, bid string) (*model.Booking, error) {
		return &model.Booking{ID: id, Code: "BK-ABC234", Status: model.BookingConfirmed}, nil
	}

	got, err := f.svc.GetByCode(context.Background(), "BK-ABC234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.BookingConfirmed {
		t.Errorf("expected the stored status after a lost race, got %s", got.Status)
	}
}

// --- Cancel ---

func cancelFixtureWith(f *fixture, status model.BookingStatus, expiresAt time.Time) *model.Booking {
	booking := &model.Booking{
		ID:        primitive.NewObjectID(),
		Code:      "BK-ABC234",
		Status:    status,
		ExpiresAt: expiresAt,
	}
	f.repo.findByCodeFn = func(ctx context.Context, code string) (*model.Booking, error) {
		return booking, nil
	}
	return booking
}

func TestCancelPendingBooking(t *testing.T) {
	f := newFixture(t)
	cancelFixtureWith(f, model.BookingPendingPayment, f.clk.Now().Add(10*time.Minute))
	f.repo.cancelIfPendingFn = func(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
		return true, nil
	}

	got, err := f.svc.Cancel(context.Background(), "BK-ABC234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.BookingCancelled {
		t.Errorf("expected status cancelled, got %s", got.Status)
	}
	if events := f.notifier.Events(); len(events) != 1 || events[0] != "booking.cancelled" {
		t.Errorf("expected booking.cancelled notification, got %v", events)
	}
}

func TestCancelAlreadyCancelledIsNoop(t *testing.T) {
	f := newFixture(t)
	cancelFixtureWith(f, model.BookingCancelled, f.clk.Now())

	got, err := f.svc.Cancel(context.Background(), "BK-ABC234")
	if err != nil {
		t.Fatalf("expected cancelling a cancelled booking to be a no-op, got: %v", err)
	}
	if got.Status != model.BookingCancelled {
		t.Errorf("expected status cancelled, got %s", got.Status)
	}
	if len(f.notifier.Events()) != 0 {
		t.Error("a no-op cancel must not notify")
	}
}

func TestCancelConfirmedBooking(t *testing.T) {
	f := newFixture(t)
	cancelFixtureWith(f, model.BookingConfirmed, f.clk.Now())

	_, err := f.svc.Cancel(context.Background(), "BK-ABC234")
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

func TestCancelExpiredBooking(t *testing.T) {
	f := newFixture(t)
	cancelFixtureWith(f, model.BookingPendingPayment, f.clk.Now().Add(-time.Minute))
	f.repo.expireIfPendingFn = func(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
		return true, nil
	}

	// The lapsed hold is settled by the read inside Cancel, which then refuses.
	_, err := f.svc.Cancel(context.Background(), "BK-ABC234")
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

func TestCancelLostRace(t *testing.T) {
	f := newFixture(t)
	cancelFixtureWith(f, model.BookingPendingPayment, f.clk.Now().Add(10*time.Minute))
	f.repo.cancelIfPendingFn = func(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
		return false, nil
	}

	_, err := f.svc.Cancel(context.Background(), "BK-ABC234")
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

// --- ConfirmAfterPayment ---

func TestConfirmAfterPayment(t *testing.T) {
	f := newFixture(t)
	id := primitive.NewObjectID()
	f.repo.confirmIfPendingFn = func(ctx context.Context, bid primitive.ObjectID, now time.Time) (bool, error) {
		return true, nil
	}
	f.repo.findByIDFn = func(ctx context.Context, bid string) (*model.Booking, error) {
		return &model.Booking{ID: id, Code: "BK-ABC234", Status: model.BookingConfirmed}, nil
	}

	got, err := f.svc.ConfirmAfterPayment(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.BookingConfirmed {
		t.Errorf("expected status confirmed, got %s", got.Status)
	}
	if events := f.notifier.Events(); len(events) != 1 || events[0] != "booking.confirmed" {
		t.Errorf("expected booking.confirmed notification, got %v", events)
	}
}

func TestConfirmAfterPaymentAlreadyConfirmed(t *testing.T) {
	f := newFixture(t)
	id := primitive.NewObjectID()
	f.repo.findByIDFn = func(ctx context.Context, bid string) (*model.Booking, error) {
		return &model.Booking{ID: id, Code: "BK-ABC234", Status: model.BookingConfirmed}, nil
	}

	// ConfirmIfPending matches nothing; the booking was confirmed by an
	// earlier delivery. No error, no second notification.
	got, err := f.svc.ConfirmAfterPayment(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.BookingConfirmed {
		t.Errorf("expected status confirmed, got %s", got.Status)
	}
	if len(f.notifier.Events()) != 0 {
		t.Error("a repeated confirmation must not notify again")
	}
}

func TestConfirmAfterPaymentLapsedHold(t *testing.T) {
	f := newFixture(t)
	id := primitive.NewObjectID()
	f.repo.findByIDFn = func(ctx context.Context, bid string) (*model.Booking, error) {
		return &model.Booking{
			ID:        id,
			Code:      "BK-ABC234",
			Status:    model.BookingPendingPayment,
			ExpiresAt: f.clk.Now().Add(-time.Minute),
		}, nil
	}
	expired := false
	f.repo.expireIfPendingFn = func(ctx context.Context, bid primitive.ObjectID, now time.Time) (bool, error) {
		expired = true
		return true, nil
	}

	got, err := f.svc.ConfirmAfterPayment(context.Background(), id)
	assertAppErrorCode(t, err, apperrors.CodeConflict)
	if !expired {
		t.Error("expected the lapsed hold to be settled as expired")
	}
	if got == nil || got.Status != model.BookingExpired {
		t.Error("expected the returned booking to be expired")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("expected the conflict to name the status, got: %v", err)
	}
}

func TestConfirmAfterPaymentCancelledBooking(t *testing.T) {
	f := newFixture(t)
	id := primitive.NewObjectID()
	f.repo.findByIDFn = func(ctx context.Context, bid string) (*model.Booking, error) {
		return &model.Booking{ID: id, Code: "BK-ABC234", Status: model.BookingCancelled}, nil
	}

	_, err := f.svc.ConfirmAfterPayment(context.Background(), id)
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

// --- GetAll ---

func TestGetAll(t *testing.T) {
	f := newFixture(t)
	f.repo.countFn = func(ctx context.Context) (int64, error) {
		return 42, nil
	}
	f.repo.findAllFn = func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
		return []*model.Booking{{Code: "BK-ABC234"}, {Code: "BK-DEF234"}}, nil
	}

	bookings, total, err := f.svc.GetAll(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 42 {
		t.Errorf("expected total 42, got %d", total)
	}
	if len(bookings) != 2 {
		t.Errorf("expected 2 bookings, got %d", len(bookings))
	}
}
