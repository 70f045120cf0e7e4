package hardware

import (
	"net"

	"github.com/nerrad567/temptick-core/internal/network"
)

// HostRadio stands in for the Wi-Fi radio on a host whose network is
// managed by the operating system. Station modes report connected while
// the host has a usable interface; the access point is never started.
type HostRadio struct {
	mode   network.RadioMode
	online func() bool
	logger Logger
}

// NewHostRadio creates a radio that checks the host interfaces for
// connectivity.
func NewHostRadio() *HostRadio {
	return &HostRadio{online: hostOnline, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (r *HostRadio) SetLogger(logger Logger) { r.logger = logger }

// SetOnline replaces the connectivity probe.
func (r *HostRadio) SetOnline(fn func() bool) { r.online = fn }

// Mode returns the last requested mode.
func (r *HostRadio) Mode() network.RadioMode { return r.mode }

// SetMode records the requested mode.
func (r *HostRadio) SetMode(m network.RadioMode) {
	r.mode = m
	r.logger.Debug("radio mode set", "mode", m)
}

// Status reports connected when a station mode is active and the host is
// online.
func (r *HostRadio) Status() network.Status {
	if r.mode != network.RadioStation && r.mode != network.RadioAccessPointStation {
		return network.StatusDisconnected
	}
	if !r.online() {
		return network.StatusDisconnected
	}
	return network.StatusConnected
}

// Begin logs the join request; the OS owns association.
func (r *HostRadio) Begin(ssid, _ string) {
	r.logger.Info("station join requested, network managed by host", "ssid", ssid)
}

// Disconnect is a no-op beyond logging.
func (r *HostRadio) Disconnect() {
	r.logger.Debug("station disconnect requested")
}

// ConfigureAccessPoint logs the access point credentials it would use.
func (r *HostRadio) ConfigureAccessPoint(ssid, _ string) {
	r.logger.Debug("access point configured", "ssid", ssid)
}

// hostOnline reports whether any non-loopback interface is up with an
// address.
func hostOnline() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
