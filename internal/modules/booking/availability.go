package booking

import (
	"context"
	"time"

	"observatory/internal/domain"
)

// ListAvailableSlots materializes the telescope's nightly slot template
// against the given date and removes every slot that overlaps an active
// booking or starts in the past. Template offsets of 1440 minutes and above
// roll onto the following calendar day, so an 18:00-06:00 template spans two
// days. The result is recomputed on every call; bookings change underneath
// us between calls.
func (s *Service) ListAvailableSlots(ctx context.Context, telescopeID int64, dateStr string) ([]TimeSlot, error) {
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, ErrInvalidDate
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	tele, err := s.telescopes.GetByID(ctx, telescopeID)
	if err != nil {
		return nil, err
	}
	if !tele.IsActive {
		return nil, ErrTelescopeUnavailable
	}

	// Two days cover every offset the template can produce.
	busy, err := s.bookings.ListBusy(ctx, telescopeID, day, day.Add(48*time.Hour))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out := make([]TimeSlot, 0)
	for _, w := range tele.SlotWindows() {
		start := day.Add(time.Duration(w.StartOffsetMin) * time.Minute)
		end := start.Add(time.Duration(w.DurationMin) * time.Minute)

		if !start.After(now) {
			continue
		}
		if overlapsAny(busy, start, end) {
			continue
		}

		out = append(out, TimeSlot{
			Start: start,
			End:   end,
			Label: start.Format("15:04") + " - " + end.Format("15:04"),
		})
	}
	return out, nil
}

func overlapsAny(busy []domain.Booking, start, end time.Time) bool {
	for i := range busy {
		if busy[i].Overlaps(start, end) {
			return true
		}
	}
	return false
}
