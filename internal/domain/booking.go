package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Terminal reports whether the status permits no further mutation.
// Cancelled and completed bookings are frozen: no status changes and no
// reminder flag updates.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// CanTransitionTo encodes the allowed status graph:
// pending <-> confirmed, and either of those to cancelled or completed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s.Terminal() || s == next {
		return false
	}
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled || next == BookingCompleted
	case BookingConfirmed:
		return next == BookingPending || next == BookingCancelled || next == BookingCompleted
	}
	return false
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return BookingStatus(s), true
	}
	return "", false
}

type Booking struct {
	ID                   int64         `json:"id"`
	TelescopeID          int64         `json:"telescope_id" validate:"required"`
	UserID               int64         `json:"user_id" validate:"required"`
	StartTime            time.Time     `json:"start_time" validate:"required"`
	EndTime              time.Time     `json:"end_time" validate:"required"`
	Purpose              string        `json:"purpose" gorm:"type:text"`
	Notes                string        `json:"notes,omitempty" gorm:"type:text"`
	Status               BookingStatus `json:"status"`
	DailyReminderSent    bool          `json:"daily_reminder_sent"`
	ImminentReminderSent bool          `json:"imminent_reminder_sent"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	CancelledAt          *time.Time    `json:"cancelled_at,omitempty"`

	User      *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Telescope *Telescope `json:"telescope,omitempty" gorm:"foreignKey:TelescopeID"`
}

// Overlaps applies the half-open interval test used everywhere in the
// scheduling core: [a, b) and [c, d) overlap iff a < d && c < b.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}
