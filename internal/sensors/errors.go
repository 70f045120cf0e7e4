package sensors

import "errors"

var (
	// ErrInvalidAddress is returned when a ROM address string cannot be parsed.
	ErrInvalidAddress = errors.New("sensors: invalid address")
)
