// Package system is the orchestrator that owns every manager, wires the
// observer graph, runs the tick loop body, persists settings and decides
// when the device may sleep.
//
// # Observer graph
//
// Wired once in Begin and never changed:
//
//	system  -> mqtt
//	sensors -> mqtt, cloud
//	relay   -> mqtt, cloud
//	mqtt    -> system, sensors, relay
//	cloud   -> system, relay
//
// # Tick order
//
//  1. sleep watchdog (suspend once WorkTime has passed since the first armed tick)
//  2. sensors
//  3. relay, skipped while armed for sleep
//  4. network
//  5. mqtt
//  6. cloud
//  7. save scheduler
//  8. sleep readiness (suspend once all completion flags are set)
//
// # Sleep
//
// When the sleep flag is set the device reads its probes, pushes them to
// both transports and suspends for SleepTime minutes. Three completion flags
// track that work: sensors-read, mqtt-sent and cloud-sent. The transport
// flags only latch after sensors-read, so an acknowledgement for something
// published before the probes were read does not count. If a transport never
// completes, the watchdog still suspends after WorkTime.
//
// Suspension stops the loop; the caller waits out the sleep duration and
// boots a fresh orchestrator from persisted settings, exactly like a wake
// from deep sleep.
//
// # Persistence
//
// RequestSave marks settings dirty. The save scheduler writes at most once
// per SaveInterval, rendering system, sensors, relay, network, mqtt and
// cloud settings into one buffer. A missing store on boot is a first boot:
// defaults are written immediately.
package system
