package noaa

import "errors"

var (
	// ErrInvalidInput is returned when a caller-supplied parameter violates a precondition.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the archive has no file for the requested station/year.
	ErrNotFound = errors.New("no data on remote archive")
)
