package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrInvalidDays   = errors.New("invalid history length")
	ErrInvalidRecord = errors.New("invalid step record")
	ErrCorrupt       = errors.New("stored value is not valid JSON")
)
