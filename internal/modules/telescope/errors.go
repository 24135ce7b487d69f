package telescope

import "errors"

var (
	ErrInvalidName     = errors.New("telescope name is required")
	ErrInvalidTemplate = errors.New("slot template entries need a positive duration and a non-negative offset")
)
