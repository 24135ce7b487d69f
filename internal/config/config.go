package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "observatory.db"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultJWTTTL         = "24h"
	defaultDailyReminder  = "10:00"
	defaultImminentEvery  = "30m"
	defaultNotifyTimeout  = "30s"
	defaultImminentWindow = "90m-120m"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration

	// Reminder scheduler knobs. The imminent window must be at least as wide
	// as the imminent period or bookings can slip between two sweeps.
	ReminderDailyAt       string // wall-clock "HH:MM" for the daily sweep
	ReminderImminentEvery time.Duration
	ImminentWindowMin     time.Duration
	ImminentWindowMax     time.Duration
	NotifyTimeout         time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", defaultHTTPAddr),
		DatabaseURL: getEnv("DATABASE_URL", defaultDatabaseURL),
		JWTSecret:   strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
	}

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.ReminderImminentEvery, err = parseDurationEnv("REMINDER_IMMINENT_EVERY", defaultImminentEvery); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = parseDurationEnv("REMINDER_NOTIFY_TIMEOUT", defaultNotifyTimeout); err != nil {
		return nil, err
	}

	cfg.ReminderDailyAt = getEnv("REMINDER_DAILY_AT", defaultDailyReminder)
	if _, _, err := ParseWallClock(cfg.ReminderDailyAt); err != nil {
		return nil, fmt.Errorf("REMINDER_DAILY_AT: %w", err)
	}

	window := getEnv("REMINDER_IMMINENT_WINDOW", defaultImminentWindow)
	cfg.ImminentWindowMin, cfg.ImminentWindowMax, err = parseWindow(window)
	if err != nil {
		return nil, fmt.Errorf("REMINDER_IMMINENT_WINDOW: %w", err)
	}

	return cfg, nil
}

// ParseWallClock parses "HH:MM" into hour and minute.
func ParseWallClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid wall-clock time %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

func parseWindow(s string) (time.Duration, time.Duration, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"min-max\", got %q", s)
	}
	min, err := time.ParseDuration(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	max, err := time.ParseDuration(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	if max <= min {
		return 0, 0, fmt.Errorf("window max must exceed min in %q", s)
	}
	return min, max, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}
