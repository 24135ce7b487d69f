package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "10:00", cfg.ReminderDailyAt)
	assert.Equal(t, 30*time.Minute, cfg.ReminderImminentEvery)
	assert.Equal(t, 90*time.Minute, cfg.ImminentWindowMin)
	assert.Equal(t, 120*time.Minute, cfg.ImminentWindowMax)
	assert.Equal(t, 30*time.Second, cfg.NotifyTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REMINDER_DAILY_AT", "08:30")
	t.Setenv("REMINDER_IMMINENT_EVERY", "15m")
	t.Setenv("REMINDER_IMMINENT_WINDOW", "45m-60m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "08:30", cfg.ReminderDailyAt)
	assert.Equal(t, 15*time.Minute, cfg.ReminderImminentEvery)
	assert.Equal(t, 45*time.Minute, cfg.ImminentWindowMin)
	assert.Equal(t, 60*time.Minute, cfg.ImminentWindowMax)
}

func TestParseWallClock(t *testing.T) {
	h, m, err := ParseWallClock("10:00")
	require.NoError(t, err)
	assert.Equal(t, 10, h)
	assert.Equal(t, 0, m)

	_, _, err = ParseWallClock("25:00")
	assert.Error(t, err)
}

func TestParseWindowRejectsInverted(t *testing.T) {
	t.Setenv("REMINDER_IMMINENT_WINDOW", "120m-90m")

	_, err := Load()
	assert.Error(t, err)
}
