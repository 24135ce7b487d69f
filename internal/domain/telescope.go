package domain

import (
	"encoding/json"
	"time"
)

// SlotWindow is one entry of a telescope's nightly slot template.
// StartOffsetMin counts minutes from the booking date's midnight; offsets of
// 1440 and above fall on the following calendar day.
type SlotWindow struct {
	StartOffsetMin int `json:"start_offset_min"`
	DurationMin    int `json:"duration_min"`
}

// DefaultNightlyTemplate is twelve one-hour slots from 18:00 to 06:00 the
// following morning.
func DefaultNightlyTemplate() []SlotWindow {
	out := make([]SlotWindow, 0, 12)
	for i := 0; i < 12; i++ {
		out = append(out, SlotWindow{StartOffsetMin: 18*60 + i*60, DurationMin: 60})
	}
	return out
}

type TelescopeSpecs struct {
	Aperture    string   `json:"aperture,omitempty"`
	FocalLength string   `json:"focal_length,omitempty"`
	MountType   string   `json:"mount_type,omitempty"`
	Accessories []string `json:"accessories,omitempty"`
}

type Telescope struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description" gorm:"type:text"`
	Location      string          `json:"location"`
	Specs         json.RawMessage `json:"specs,omitempty" gorm:"column:specs;type:jsonb"`
	SlotTemplate  json.RawMessage `json:"slot_template,omitempty" gorm:"column:slot_template;type:jsonb"`
	IsActive      bool            `json:"is_active"`
	MaintenanceAt *time.Time      `json:"maintenance_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SlotWindows decodes the stored template, falling back to the default
// nightly template when none is configured.
func (t *Telescope) SlotWindows() []SlotWindow {
	if len(t.SlotTemplate) == 0 {
		return DefaultNightlyTemplate()
	}
	var tpl []SlotWindow
	if err := json.Unmarshal(t.SlotTemplate, &tpl); err != nil || len(tpl) == 0 {
		return DefaultNightlyTemplate()
	}
	return tpl
}
