// Package network reconciles the radio with the configured network mode and
// keeps the station link alive.
//
// Four modes are supported: Off, Station, AccessPointStation and Auto. Every
// Tick compares the desired mode with the live radio mode and reconfigures
// only when they differ. Auto picks Station while the upstream link is up and
// falls back to AccessPointStation when it is down, so the local UI stays
// reachable on the device's own access point.
//
// While the station link is down the manager retries at most once every
// ReconnectInterval.
//
// Connect with explicit credentials is the one blocking operation in the
// tick loop. It waits for the link, pumping the system tick so sensors and
// transports keep running, with this manager's own Tick suppressed for the
// duration.
//
// The local UI is started, restarted on radio reconfiguration and ticked
// only while the device is not armed for sleep.
package network
