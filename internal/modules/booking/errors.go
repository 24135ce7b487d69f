package booking

import (
	"errors"
	"time"
)

const (
	MinPurposeLen = 10
	MaxPurposeLen = 500
	MaxNotesLen   = 1000
)

// CancellationCutoff is the minimum lead time for a user cancellation.
// Exported so the HTTP layer can render it in error messages.
const CancellationCutoff = 2 * time.Hour

var (
	ErrInvalidWindow        = errors.New("end time must be after start time")
	ErrPastBooking          = errors.New("cannot book past time slots")
	ErrInvalidPurpose       = errors.New("purpose must be between 10 and 500 characters")
	ErrInvalidNotes         = errors.New("notes must be at most 1000 characters")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")
	ErrTelescopeUnavailable = errors.New("telescope not available")
	ErrAlreadyTerminal      = errors.New("booking can no longer be changed")
	ErrCancellationCutoff   = errors.New("cannot cancel less than 2 hours before start time")
	ErrForbidden            = errors.New("forbidden")
)
