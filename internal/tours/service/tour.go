package service

import (
	"context"
	"errors"

	tourserrors "travelapi/internal/tours/errors"
	"travelapi/internal/tours/repository"
	"travelapi/pkg/clock"
	"travelapi/pkg/config"
	apperrors "travelapi/pkg/errors"
	"travelapi/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeatCounter reports how many seats are currently held against a departure,
// counting confirmed bookings and unexpired pending holds.
type SeatCounter interface {
	SeatsInUse(ctx context.Context, tourDateID primitive.ObjectID) (int, error)
}

type TourService interface {
	List(ctx context.Context) ([]*model.TourSummary, error)
	GetBySlug(ctx context.Context, slug string) (*model.Tour, error)
	ListDates(ctx context.Context, slug string) ([]*model.PublicTourDate, error)
}

type tourService struct {
	repo     repository.TourRepository
	dateRepo repository.TourDateRepository
	seats    SeatCounter
	clock    clock.Clock
	cfg      *config.Config
}

func NewTourService(
	repo repository.TourRepository,
	dateRepo repository.TourDateRepository,
	seats SeatCounter,
	clk clock.Clock,
	cfg *config.Config,
) TourService {
	return &tourService{
		repo:     repo,
		dateRepo: dateRepo,
		seats:    seats,
		clock:    clk,
		cfg:      cfg,
	}
}

func (s *tourService) List(ctx context.Context) ([]*model.TourSummary, error) {
	tours, err := s.repo.FindActive(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list tours", "error", err)
		return nil, apperrors.Internal("Failed to retrieve tours", err)
	}

	summaries := make([]*model.TourSummary, 0, len(tours))
	for _, tour := range tours {
		summaries = append(summaries, tour.ToSummary())
	}

	return summaries, nil
}

func (s *tourService) GetBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	if slug == "" {
		return nil, apperrors.InvalidInput("Tour slug cannot be empty")
	}

	tour, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tour", slug)
		}
		s.cfg.Log.Error("Failed to retrieve tour", "slug", slug, "error", err)
		return nil, apperrors.Internal("Failed to retrieve tour", err)
	}

	return tour, nil
}

// ListDates returns the upcoming open departures of a group tour with live
// availability. Availability is computed per request from the booking ledger,
// it is not stored on the departure.
func (s *tourService) ListDates(ctx context.Context, slug string) ([]*model.PublicTourDate, error) {
	tour, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if tour.Type != model.TourTypeGroup {
		return []*model.PublicTourDate{}, nil
	}

	dates, err := s.dateRepo.FindOpenByTour(ctx, tour.ID, s.clock.Now())
	if err != nil {
		s.cfg.Log.Error("Failed to list tour dates", "slug", slug, "error", err)
		return nil, apperrors.Internal("Failed to retrieve tour dates", err)
	}

	public := make([]*model.PublicTourDate, 0, len(dates))
	for _, date := range dates {
		inUse, err := s.seats.SeatsInUse(ctx, date.ID)
		if err != nil {
			s.cfg.Log.Error("Failed to count seats in use",
				"tour_date_id", date.ID.Hex(),
				"error", err,
			)
			return nil, apperrors.Internal("Failed to compute availability", err)
		}

		available := max(date.Capacity-inUse, 0)

		public = append(public, &model.PublicTourDate{
			ID:             date.ID.Hex(),
			StartDate:      date.StartDate,
			EndDate:        date.EndDate,
			AvailableSpots: available,
			Price:          date.UnitPrice(tour.BasePrice),
			Currency:       tour.Currency,
		})
	}

	return public, nil
}
