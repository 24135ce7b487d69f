package booking

import (
	"context"
	"log"
	"unicode/utf8"

	"observatory/internal/domain"
	"observatory/internal/pkg/clock"
	"observatory/internal/realtime"
)

type Service struct {
	bookings   BookingRepository
	telescopes TelescopeRepository
	notifs     NotificationSender
	events     Publisher
	clock      clock.Clock
}

func NewService(
	bookings BookingRepository,
	telescopes TelescopeRepository,
	notifs NotificationSender,
	events Publisher,
	clk clock.Clock,
) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{
		bookings:   bookings,
		telescopes: telescopes,
		notifs:     notifs,
		events:     events,
		clock:      clk,
	}
}

// CreateBooking validates the request, checks the telescope, and delegates
// the conflict check to the store. Validation short-circuits in order:
// window, past start, purpose, notes, telescope, conflict.
func (s *Service) CreateBooking(ctx context.Context, userID int64, req CreateBookingRequest) (*domain.Booking, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidWindow
	}
	if !req.StartTime.After(s.clock.Now()) {
		return nil, ErrPastBooking
	}
	if n := utf8.RuneCountInString(req.Purpose); n < MinPurposeLen || n > MaxPurposeLen {
		return nil, ErrInvalidPurpose
	}
	if utf8.RuneCountInString(req.Notes) > MaxNotesLen {
		return nil, ErrInvalidNotes
	}

	tele, err := s.telescopes.GetByID(ctx, req.TelescopeID)
	if err != nil || !tele.IsActive {
		return nil, ErrTelescopeUnavailable
	}

	b := &domain.Booking{
		TelescopeID: req.TelescopeID,
		UserID:      userID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Purpose:     req.Purpose,
		Notes:       req.Notes,
		Status:      domain.BookingPending,
	}

	// The store owns the overlap invariant; its conflict error is surfaced
	// unchanged.
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	b.Telescope = tele

	s.notifyCreated(ctx, b)
	s.publish(b.TelescopeID, "booking-created", b)

	return b, nil
}

// CancelBooking enforces ownership, the terminal-status freeze, and the
// two-hour cancellation cutoff.
func (s *Service) CancelBooking(ctx context.Context, id, requesterID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != requesterID {
		return nil, ErrForbidden
	}
	if b.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}
	if b.StartTime.Sub(s.clock.Now()) < CancellationCutoff {
		return nil, ErrCancellationCutoff
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingCancelled)
	if err != nil {
		return nil, err
	}
	updated.Telescope = b.Telescope
	updated.User = b.User

	if s.notifs != nil {
		if err := s.notifs.NotifyBookingCancelled(ctx, updated); err != nil {
			log.Printf("booking %d: cancellation notification failed: %v", updated.ID, err)
		}
	}
	s.publish(updated.TelescopeID, "booking-cancelled", updated)

	return updated, nil
}

// SetStatus is the administrative override: any transition the status graph
// allows, with no cutoff. The store rejects illegal transitions.
func (s *Service) SetStatus(ctx context.Context, id int64, next domain.BookingStatus, actorRole domain.Role) (*domain.Booking, error) {
	if actorRole != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		var nerr error
		if next == domain.BookingCancelled {
			nerr = s.notifs.NotifyBookingCancelled(ctx, updated)
		} else {
			nerr = s.notifs.NotifyBookingStatusChanged(ctx, updated)
		}
		if nerr != nil {
			log.Printf("booking %d: status notification failed: %v", updated.ID, nerr)
		}
	}
	s.publish(updated.TelescopeID, "booking-updated", updated)

	return updated, nil
}

func (s *Service) ListMyBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) notifyCreated(ctx context.Context, b *domain.Booking) {
	if s.notifs == nil {
		return
	}
	if err := s.notifs.NotifyBookingCreated(ctx, b); err != nil {
		log.Printf("booking %d: created notification failed: %v", b.ID, err)
	}
}

func (s *Service) publish(telescopeID int64, event string, payload any) {
	if s.events == nil {
		return
	}
	s.events.Publish(realtime.TelescopeChannel(telescopeID), event, payload)
}
