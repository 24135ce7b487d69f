package booking

import (
	"context"
	"time"

	"observatory/internal/domain"
)

// BookingRepository is the reservation store surface the service needs.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, next domain.BookingStatus) (*domain.Booking, error)
	ListBusy(ctx context.Context, telescopeID int64, from, to time.Time) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
}

type TelescopeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Telescope, error)
}

// NotificationSender delivers booking lifecycle notifications. Failures are
// logged by the service and never propagate to the caller.
type NotificationSender interface {
	NotifyBookingCreated(ctx context.Context, b *domain.Booking) error
	NotifyBookingCancelled(ctx context.Context, b *domain.Booking) error
	NotifyBookingStatusChanged(ctx context.Context, b *domain.Booking) error
}

// Publisher is the realtime fan-out; fire and forget.
type Publisher interface {
	Publish(channel, event string, payload any)
}
