// Package hardware provides the host-side collaborators the managers drive:
// a Linux 1-Wire sysfs probe driver, a simulated probe bus, a radio for
// hosts whose network is managed by the OS, the relay output pin and the
// wake button.
//
// # 1-Wire sysfs
//
// The w1_therm kernel driver exposes each DS18B20 as a directory
// /sys/bus/w1/devices/28-<serial>. The serial is printed most significant
// byte first, so the ROM address is rebuilt as
//
//	[family, serial bytes reversed..., crc8]
//
// Temperatures are read from the "temperature" attribute (millidegrees)
// and fall back to parsing "t=" from w1_slave on older kernels.
package hardware
