package hardware

import "errors"

var (
	// ErrNoProbe is returned when a probe directory does not exist.
	ErrNoProbe = errors.New("hardware: probe not present")

	// ErrCRC is returned when w1_slave reports a failed CRC check.
	ErrCRC = errors.New("hardware: probe crc mismatch")

	// ErrMalformed is returned for an unparseable sysfs attribute.
	ErrMalformed = errors.New("hardware: malformed sysfs value")
)
