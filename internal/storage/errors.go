package storage

import "errors"

var (
	// ErrNotFound is returned by Load when nothing has been saved yet.
	ErrNotFound = errors.New("storage: settings not found")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("storage: unknown backend")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage: store closed")
)
