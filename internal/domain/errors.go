package domain

import "errors"

// Sentinel errors shared between repositories and services.
// Handlers map these to HTTP status codes.
var (
	ErrNotFound          = errors.New("record not found")
	ErrSlotConflict      = errors.New("time slot is already booked")
	ErrInvalidTransition = errors.New("invalid status transition")
)
