package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influxdb.ErrNotConnected) {
//	    // Handle disconnected state
//	}
var (
	// ErrNotConnected indicates there is no dashboard session.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the connect ping failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed indicates a point could not be written.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrNoToken indicates Connect was called with an empty auth token.
	ErrNoToken = errors.New("influxdb: empty token")

	// ErrNoHandler indicates a remote write arrived before the cloud
	// manager registered its handler.
	ErrNoHandler = errors.New("influxdb: no write handler")
)
