package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"observatory/internal/domain"
	"observatory/internal/realtime"
	"observatory/internal/repository"
)

// Service persists one notification row per booking event and pushes it to
// the owner's realtime channel. It implements the sender interfaces consumed
// by the booking and reminder modules; every method is best-effort from the
// caller's point of view.
type Service struct {
	repo *repository.NotificationRepository
	hub  *realtime.Hub
}

func NewService(repo *repository.NotificationRepository, hub *realtime.Hub) *Service {
	return &Service{repo: repo, hub: hub}
}

func (s *Service) create(ctx context.Context, userID int64, t domain.NotificationType, title, message string, data map[string]any) error {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = b
	}

	n := &domain.Notification{
		UserID:  userID,
		Type:    t,
		Title:   title,
		Message: message,
		Data:    raw,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Publish(realtime.UserChannel(userID), "notification", n)
	}
	return nil
}

func (s *Service) NotifyBookingCreated(ctx context.Context, b *domain.Booking) error {
	return s.create(
		ctx,
		b.UserID,
		domain.NotifBookingCreated,
		"Booking received",
		fmt.Sprintf("Your observing session on %s at %s is pending approval",
			telescopeName(b), b.StartTime.Format("02 Jan 2006 15:04")),
		bookingData(b),
	)
}

func (s *Service) NotifyBookingCancelled(ctx context.Context, b *domain.Booking) error {
	return s.create(
		ctx,
		b.UserID,
		domain.NotifBookingCancelled,
		"Booking cancelled",
		fmt.Sprintf("Your observing session on %s at %s has been cancelled",
			telescopeName(b), b.StartTime.Format("02 Jan 2006 15:04")),
		bookingData(b),
	)
}

func (s *Service) NotifyBookingStatusChanged(ctx context.Context, b *domain.Booking) error {
	return s.create(
		ctx,
		b.UserID,
		domain.NotifBookingUpdated,
		"Booking updated",
		fmt.Sprintf("Your observing session on %s at %s is now %s",
			telescopeName(b), b.StartTime.Format("02 Jan 2006 15:04"), b.Status),
		bookingData(b),
	)
}

func (s *Service) NotifyDailyReminder(ctx context.Context, b *domain.Booking) error {
	return s.create(
		ctx,
		b.UserID,
		domain.NotifReminderDaily,
		"Observing session tomorrow",
		fmt.Sprintf("Reminder: your session on %s starts tomorrow at %s",
			telescopeName(b), b.StartTime.Format("15:04")),
		bookingData(b),
	)
}

func (s *Service) NotifyImminentReminder(ctx context.Context, b *domain.Booking) error {
	minutes := int(time.Until(b.StartTime).Round(time.Minute).Minutes())
	return s.create(
		ctx,
		b.UserID,
		domain.NotifReminderImminent,
		"Observing session starting soon",
		fmt.Sprintf("Your session on %s starts in about %d minutes",
			telescopeName(b), minutes),
		bookingData(b),
	)
}

func telescopeName(b *domain.Booking) string {
	if b.Telescope != nil && b.Telescope.Name != "" {
		return b.Telescope.Name
	}
	return fmt.Sprintf("telescope #%d", b.TelescopeID)
}

func bookingData(b *domain.Booking) map[string]any {
	return map[string]any{
		"booking_id":   b.ID,
		"telescope_id": b.TelescopeID,
		"start_time":   b.StartTime.Format(time.RFC3339),
		"end_time":     b.EndTime.Format(time.RFC3339),
		"status":       b.Status,
	}
}

// Notification rows older than this are pruned; booking history itself is
// kept forever.
const retention = 90 * 24 * time.Hour

// StartCleanup prunes aged notification rows once per interval. The returned
// stop function terminates the loop and waits for it to exit.
func (s *Service) StartCleanup(every time.Duration) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				n, err := s.repo.DeleteOlderThan(context.Background(), retention)
				if err != nil {
					log.Printf("notification cleanup failed: %v", err)
				} else if n > 0 {
					log.Printf("pruned %d old notifications", n)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

/* ---------- read API ---------- */

func (s *Service) ListMine(ctx context.Context, userID int64, limit int) ([]domain.Notification, int64, error) {
	list, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}
	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
