package telescope

import (
	"context"
	"strings"
	"time"

	"observatory/internal/domain"
	"observatory/internal/pkg/clock"
)

const upcomingPreviewLimit = 10

type TelescopeRepository interface {
	Create(ctx context.Context, t *domain.Telescope) error
	Update(ctx context.Context, t *domain.Telescope) error
	GetByID(ctx context.Context, id int64) (*domain.Telescope, error)
	List(ctx context.Context, onlyActive bool) ([]domain.Telescope, error)
	Deactivate(ctx context.Context, id int64) (*domain.Telescope, error)
}

type BookingRepository interface {
	ListUpcomingForTelescope(ctx context.Context, telescopeID int64, after time.Time, limit int) ([]domain.Booking, error)
}

type Service struct {
	telescopes TelescopeRepository
	bookings   BookingRepository
	clock      clock.Clock
}

func NewService(telescopes TelescopeRepository, bookings BookingRepository, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{telescopes: telescopes, bookings: bookings, clock: clk}
}

// List returns active telescopes for members; admins see deactivated ones
// too.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]domain.Telescope, error) {
	return s.telescopes.List(ctx, !includeInactive)
}

// GetDetail returns the telescope with a preview of its upcoming schedule so
// the booking page can grey out occupied nights without a second request.
func (s *Service) GetDetail(ctx context.Context, id int64) (*TelescopeDetail, error) {
	t, err := s.telescopes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.bookings.ListUpcomingForTelescope(ctx, id, s.clock.Now(), upcomingPreviewLimit)
	if err != nil {
		return nil, err
	}

	intervals := make([]BusyInterval, 0, len(upcoming))
	for _, b := range upcoming {
		intervals = append(intervals, BusyInterval{
			StartTime: b.StartTime.UTC().Format(time.RFC3339),
			EndTime:   b.EndTime.UTC().Format(time.RFC3339),
		})
	}
	return &TelescopeDetail{Telescope: t, UpcomingBookings: intervals}, nil
}

func (s *Service) Create(ctx context.Context, req CreateTelescopeRequest) (*domain.Telescope, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if err := validateTemplate(req.SlotTemplate); err != nil {
		return nil, err
	}

	specs, err := marshalSpecs(req.Specs)
	if err != nil {
		return nil, err
	}
	tpl, err := marshalTemplate(req.SlotTemplate)
	if err != nil {
		return nil, err
	}

	t := &domain.Telescope{
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		Location:     strings.TrimSpace(req.Location),
		Specs:        specs,
		SlotTemplate: tpl,
		IsActive:     true,
	}
	if err := s.telescopes.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateTelescopeRequest) (*domain.Telescope, error) {
	t, err := s.telescopes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		t.Name = name
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		t.Location = strings.TrimSpace(*req.Location)
	}
	if req.Specs != nil {
		specs, err := marshalSpecs(req.Specs)
		if err != nil {
			return nil, err
		}
		t.Specs = specs
	}
	if req.SlotTemplate != nil {
		if err := validateTemplate(req.SlotTemplate); err != nil {
			return nil, err
		}
		tpl, err := marshalTemplate(req.SlotTemplate)
		if err != nil {
			return nil, err
		}
		t.SlotTemplate = tpl
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	t.UpdatedAt = s.clock.Now().UTC()

	if err := s.telescopes.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) (*domain.Telescope, error) {
	return s.telescopes.Deactivate(ctx, id)
}

func validateTemplate(tpl []domain.SlotWindow) error {
	for _, w := range tpl {
		if w.DurationMin <= 0 || w.StartOffsetMin < 0 {
			return ErrInvalidTemplate
		}
	}
	return nil
}
