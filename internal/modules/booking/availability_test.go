package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"observatory/internal/domain"
)

func TestListAvailableSlots_BookedSlotOmitted(t *testing.T) {
	// A telescope with the default nightly template and one confirmed
	// booking 18:00-19:00: that slot disappears, 19:00-20:00 stays.
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour) // noon the previous day

	bookings := new(MockBookingRepository)
	telescopes := new(MockTelescopeRepository)
	svc := NewService(bookings, telescopes, nil, nil, fixedClock(now))

	telescopes.On("GetByID", mock.Anything, int64(1)).Return(activeTelescope(), nil)
	bookings.On("ListBusy", mock.Anything, int64(1), day, day.Add(48*time.Hour)).
		Return([]domain.Booking{{
			TelescopeID: 1,
			StartTime:   day.Add(18 * time.Hour),
			EndTime:     day.Add(19 * time.Hour),
			Status:      domain.BookingConfirmed,
		}}, nil)

	slots, err := svc.ListAvailableSlots(context.Background(), 1, "2025-06-02")
	require.NoError(t, err)

	assert.Len(t, slots, 11)
	starts := make(map[string]bool)
	for _, s := range slots {
		starts[s.Start.Format("15:04")] = true
	}
	assert.False(t, starts["18:00"], "booked slot must be omitted")
	assert.True(t, starts["19:00"], "adjacent slot must stay available")
}

func TestListAvailableSlots_AdjacentBookingsDoNotTouch(t *testing.T) {
	// Half-open intervals: a booking ending exactly at a slot's start does
	// not block it.
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)

	bookings := new(MockBookingRepository)
	telescopes := new(MockTelescopeRepository)
	svc := NewService(bookings, telescopes, nil, nil, fixedClock(now))

	telescopes.On("GetByID", mock.Anything, int64(1)).Return(activeTelescope(), nil)
	bookings.On("ListBusy", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]domain.Booking{{
			TelescopeID: 1,
			StartTime:   day.Add(17 * time.Hour),
			EndTime:     day.Add(18 * time.Hour),
		}}, nil)

	slots, err := svc.ListAvailableSlots(context.Background(), 1, "2025-06-02")
	require.NoError(t, err)
	assert.Len(t, slots, 12, "booking ending at 18:00 must not block the 18:00 slot")
}

func TestListAvailableSlots_PastSlotsExcluded(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	now := day.Add(20*time.Hour + 30*time.Minute) // 20:30 on the booking date

	bookings := new(MockBookingRepository)
	telescopes := new(MockTelescopeRepository)
	svc := NewService(bookings, telescopes, nil, nil, fixedClock(now))

	telescopes.On("GetByID", mock.Anything, int64(1)).Return(activeTelescope(), nil)
	bookings.On("ListBusy", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]domain.Booking{}, nil)

	slots, err := svc.ListAvailableSlots(context.Background(), 1, "2025-06-02")
	require.NoError(t, err)

	// 18:00, 19:00, 20:00 are gone; 21:00 through 05:00 remain.
	assert.Len(t, slots, 9)
	assert.Equal(t, "21:00", slots[0].Start.Format("15:04"))
}

func TestListAvailableSlots_TemplateRollsOverMidnight(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)

	bookings := new(MockBookingRepository)
	telescopes := new(MockTelescopeRepository)
	svc := NewService(bookings, telescopes, nil, nil, fixedClock(now))

	telescopes.On("GetByID", mock.Anything, int64(1)).Return(activeTelescope(), nil)
	bookings.On("ListBusy", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]domain.Booking{}, nil)

	slots, err := svc.ListAvailableSlots(context.Background(), 1, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, slots, 12)

	last := slots[len(slots)-1]
	assert.Equal(t, 3, last.Start.Day(), "05:00 slot falls on the next calendar day")
	assert.Equal(t, "05:00", last.Start.Format("15:04"))
	assert.Equal(t, "05:00 - 06:00", last.Label)
}

func TestListAvailableSlots_InvalidDate(t *testing.T) {
	svc := NewService(new(MockBookingRepository), new(MockTelescopeRepository), nil, nil, fixedClock(testNow))

	_, err := svc.ListAvailableSlots(context.Background(), 1, "02-06-2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestListAvailableSlots_InactiveTelescope(t *testing.T) {
	bookings := new(MockBookingRepository)
	telescopes := new(MockTelescopeRepository)
	svc := NewService(bookings, telescopes, nil, nil, fixedClock(testNow))

	telescopes.On("GetByID", mock.Anything, int64(1)).
		Return(&domain.Telescope{ID: 1, IsActive: false}, nil)

	_, err := svc.ListAvailableSlots(context.Background(), 1, "2025-06-02")
	assert.ErrorIs(t, err, ErrTelescopeUnavailable)
}

func TestListAvailableSlots_UnknownTelescope(t *testing.T) {
	bookings := new(MockBookingRepository)
	telescopes := new(MockTelescopeRepository)
	svc := NewService(bookings, telescopes, nil, nil, fixedClock(testNow))

	telescopes.On("GetByID", mock.Anything, int64(9)).Return(nil, domain.ErrNotFound)

	_, err := svc.ListAvailableSlots(context.Background(), 9, "2025-06-02")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
