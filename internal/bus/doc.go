// Package bus is the synchronous observer registry that connects temptick's
// managers.
//
// Every manager is a Consumer. A producer owns a Registry holding the
// consumers it publishes to, registered once at startup by the system
// orchestrator. Delivery happens on the caller's goroutine, in registration
// order, within the same call stack as the producing Tick.
//
// # Delivery modes
//
// Notify is at-most-one delivery: observers are offered the event in order
// and iteration stops at the first one that claims it (HandleEvent returns
// true). Registration order therefore doubles as priority. Inbound transports
// (MQTT, cloud) use Notify so a remote command is applied exactly once.
//
// Broadcast offers the event to every observer and counts claims. Producers
// whose data must reach several sinks in the same wake cycle (a sensor
// reading going to both MQTT and the cloud link) broadcast.
//
// # Event codes
//
// Codes are hierarchical paths such as "/sensors/data/ds18b20/temp/T1".
// Consumers recognise a prefix (see HasPrefix) and claim what they own. A
// manager always claims its own "/<domain>/data" echoes so a value published
// to a broker and received back on the wildcard subscription does not loop.
package bus
