package telescope

import (
	"encoding/json"

	"observatory/internal/domain"
)

type CreateTelescopeRequest struct {
	Name         string                 `json:"name" binding:"required,min=2,max=120"`
	Description  string                 `json:"description"`
	Location     string                 `json:"location"`
	Specs        *domain.TelescopeSpecs `json:"specs"`
	SlotTemplate []domain.SlotWindow    `json:"slot_template"`
}

type UpdateTelescopeRequest struct {
	Name         *string                `json:"name"`
	Description  *string                `json:"description"`
	Location     *string                `json:"location"`
	Specs        *domain.TelescopeSpecs `json:"specs"`
	SlotTemplate []domain.SlotWindow    `json:"slot_template"`
	IsActive     *bool                  `json:"is_active"`
}

// TelescopeDetail is the public detail view: the telescope plus a short
// preview of its upcoming schedule.
type TelescopeDetail struct {
	Telescope        *domain.Telescope `json:"telescope"`
	UpcomingBookings []BusyInterval    `json:"upcoming_bookings"`
}

// BusyInterval deliberately omits who holds the booking; the public detail
// view only needs the occupied times.
type BusyInterval struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func marshalSpecs(s *domain.TelescopeSpecs) (json.RawMessage, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func marshalTemplate(tpl []domain.SlotWindow) (json.RawMessage, error) {
	if len(tpl) == 0 {
		return nil, nil
	}
	return json.Marshal(tpl)
}
