// Package mqtt is the paho-backed broker transport for the MQTT manager.
//
// The manager owns the connection policy: when to connect, the 20 s retry
// cooldown, when to drop the link after a settings change. This package
// therefore disables paho's auto-reconnect and connect-retry and exposes a
// plain Connect/Publish/Subscribe/Disconnect surface.
//
// # Threading
//
// paho invokes message handlers on its own goroutines. Inbound messages
// are pushed onto a bounded channel that the manager drains on the tick
// loop; when the channel is full the message is dropped and a warning
// logged. Publish never blocks: it returns the paho token, which the
// manager polls for completion.
//
// # Status topic
//
// When enabled, a retained {"status":"online"} message is published on
// connect, a graceful {"status":"offline"} on Disconnect, and the broker
// publishes an unexpected-disconnect last will otherwise.
//
// # Security
//
// Credentials come from device settings and are never logged. TLS is
// enabled by the mqtt.tls config flag.
package mqtt
