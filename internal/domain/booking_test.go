package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, true},
		{BookingConfirmed, BookingPending, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingCompleted, true},
		{BookingCancelled, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCompleted, BookingConfirmed, false},
		{BookingPending, BookingPending, false},
		{BookingConfirmed, BookingConfirmed, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestBookingStatus_Terminal(t *testing.T) {
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingConfirmed.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.True(t, BookingCompleted.Terminal())
}

func TestBooking_Overlaps(t *testing.T) {
	base := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	b := &Booking{StartTime: base, EndTime: base.Add(time.Hour)}

	// half-open: touching endpoints do not overlap
	assert.False(t, b.Overlaps(base.Add(-time.Hour), base))
	assert.False(t, b.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)))

	assert.True(t, b.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)))
	assert.True(t, b.Overlaps(base.Add(-30*time.Minute), base.Add(30*time.Minute)))
	assert.True(t, b.Overlaps(base, base.Add(time.Hour)))
}

func TestTelescope_SlotWindows_Default(t *testing.T) {
	tele := &Telescope{}
	tpl := tele.SlotWindows()
	assert.Len(t, tpl, 12)
	assert.Equal(t, 18*60, tpl[0].StartOffsetMin)
	assert.Equal(t, 60, tpl[0].DurationMin)
	// last slot starts at 05:00 the following day
	assert.Equal(t, 29*60, tpl[11].StartOffsetMin)
}
