package booking

import "time"

type CreateBookingRequest struct {
	TelescopeID int64     `json:"telescope_id" binding:"required" validate:"required,gt=0"`
	StartTime   time.Time `json:"start_time" binding:"required" validate:"required"`
	EndTime     time.Time `json:"end_time" binding:"required" validate:"required"`
	Purpose     string    `json:"purpose" binding:"required" validate:"required"`
	Notes       string    `json:"notes"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TimeSlot is one bookable window from a telescope's nightly template.
type TimeSlot struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
	Label string    `json:"display"`
}
