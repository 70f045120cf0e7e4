// Package api implements the local HTTP UI and event stream of the device.
//
// This package provides:
//   - REST endpoints to read device state and edit every persisted setting
//   - A WebSocket stream of the events the device produces
//   - The webhook the dashboard calls to write a virtual port
//   - Middleware stack (request ID, logging, recovery, body limit)
//
// # Threading
//
// Device state belongs to the tick loop. Handlers parse and validate the
// request on the HTTP goroutine, then hand a closure to the loop through a
// bounded queue and wait for its result. The network manager drains the
// queue by calling Tick, so a request is answered only while the loop is
// running and not sleep-armed; otherwise it fails with 503 after the
// request timeout. A full queue also answers 503.
//
// The server implements the network manager's UI interface: Start and Stop
// follow the radio, and may run many times over the life of the process.
//
// # Security
//
// The UI is served on the local network without authentication. Wi-Fi,
// broker and dashboard secrets are write-only: they never appear in a
// response.
package api
