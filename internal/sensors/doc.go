// Package sensors owns the DS18B20 probe table: calibration, periodic
// reading, fault classification and publication of readings on the event
// bus.
//
// # Reading cycle
//
// Tick fires on the first call and then every ReadInterval seconds (0
// disables reading). A cycle asks the Driver for one batch conversion, reads
// every configured probe and classifies the raw value:
//
//	raw < -100   StatusDisconnected  (driver fault sentinel is -127)
//	raw == 85    StatusPowerOnDefault
//	otherwise    StatusOK, correction applied
//
// Each probe's value is broadcast on "/sensors/data/ds18b20/temp/<name>" and
// the system's sensors-read completion flag is raised.
//
// # Persistence
//
//	SSrdt        read interval, seconds
//	SSDSn<i>     display name (at most 2 characters)
//	SSDSa<i>     8-byte ROM address, hex
//	SSDSr<i>     resolution bits, 9..12
//	SSDSc<i>     correction, clamped to [-20, 20]
//
// Probes are written from index 0 without gaps, so deleting one renumbers the
// rest on the next save.
//
// Display names are not required to be unique. Two probes sharing a name
// publish on the same event code and the cloud link table cannot tell them
// apart; the UI warns about it but the manager accepts it.
package sensors
