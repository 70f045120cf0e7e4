// Package panel serves the device's local settings panel.
//
// The panel is a small static page set embedded into the binary with
// go:embed. It talks to the device only through the /api/v1 routes and
// the event stream, so the handler itself holds no device state.
//
// Three views share one index.html: Home (live probe readings), Settings
// (network, MQTT, cloud links, probes, relay and sleep) and Memory (stored
// settings state, recent events and the reset buttons). Unknown paths fall
// back to index.html, and the page picks its view from the path.
package panel
