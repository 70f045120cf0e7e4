// Package mqttlink bridges the event bus to an MQTT broker.
//
// Outbound, every event offered to the manager is published with the event
// code as topic and the scalar's text form as payload ("23.40", "1"). The
// event is claimed as soon as the transport accepts the publish; the
// mqtt-sent completion flag is raised only once the broker acknowledges it,
// which Tick observes by polling the pending deliveries.
//
// Inbound, the manager subscribes to "/#". Messages are queued by the
// transport's own goroutines and drained in Tick, where each payload is
// parsed as a float and offered to the manager's observers under its topic
// with first-claim delivery.
//
// Connection handling is a small state machine run from Tick:
//
//	reset requested      -> disconnect
//	disabled, no server,
//	or network down      -> idle
//	not connected        -> connect, at most once per ReconnectInterval
//	connected            -> drain inbound, poll deliveries
//
// Changing the server or credentials requests a reset so the next Tick
// drops the live session and reconnects with the new settings.
package mqttlink
