package scalar

import "errors"

var (
	// ErrUnknownKind is returned when decoding with a tag outside the fixed set.
	ErrUnknownKind = errors.New("scalar: unknown kind")

	// ErrShortBuffer is returned when fewer bytes than Size(kind) are supplied.
	ErrShortBuffer = errors.New("scalar: buffer too short")
)
