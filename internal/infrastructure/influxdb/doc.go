// Package influxdb is the dashboard transport for the cloud manager.
//
// Each linked event is written as one point on the configured measurement
// (virtual_port by default) tagged with the device ID and port number. The
// dashboard reads the bucket; values pushed back from the dashboard arrive
// through RemoteWrite, normally called from the local HTTP API webhook, and
// are handed to the write handler the cloud manager registered.
//
// # Usage
//
//	client := influxdb.New(cfg.Cloud, cfg.Device.ID)
//	manager := cloud.New(client, network)
//
//	// The manager calls Connect with the device's auth setting as the
//	// InfluxDB token and VirtualWrite for every linked event.
//
// # Thread Safety
//
// All methods are safe for concurrent use. VirtualWrite never blocks: the
// blocking write runs on its own goroutine and the returned Delivery closes
// Done when it finishes.
//
// # Error Handling
//
// Connect and HealthCheck errors are returned directly. Write errors are
// reported through Delivery.Error.
package influxdb
