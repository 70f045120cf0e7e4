package sensors

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Limits and defaults for the probe table.
const (
	MaxSensors          = 10
	MaxNameLen          = 2
	DefaultName         = "Tn"
	DefaultResolution   = 12
	MinResolution       = 9
	MaxResolution       = 12
	DefaultReadInterval = 5
	MaxReadInterval     = 100
	MaxCorrection       = 20.0

	// FaultSentinel is what drivers report for an unreadable probe.
	FaultSentinel float32 = -127

	// PowerOnValue is the scratchpad value of a probe that never converted.
	PowerOnValue float32 = 85

	disconnectedBelow float32 = -100
)

// Status classifies the last reading of a probe.
type Status uint8

const (
	StatusOK             Status = 0
	StatusDisconnected   Status = 1
	StatusPowerOnDefault Status = 2
	StatusUnspecified    Status = 255
)

// String returns a short label for the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDisconnected:
		return "disconnected"
	case StatusPowerOnDefault:
		return "power_on_default"
	default:
		return "unspecified"
	}
}

// Address is a 1-Wire ROM code: family byte, 48-bit serial, CRC.
type Address [8]byte

// IsZero reports whether no address has been assigned. A family byte of
// zero never occurs on a real device.
func (a Address) IsZero() bool { return a[0] == 0 }

// String renders the address as dash-separated hex bytes, "28-ff-64-...".
func (a Address) String() string {
	parts := make([]string, len(a))
	for i, b := range a {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, "-")
}

// ParseAddress accepts the forms produced by Address.String and plain
// 16-digit hex.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	if err != nil || len(raw) != len(a) {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	copy(a[:], raw)
	return a, nil
}

// Sensor is one configured probe.
type Sensor struct {
	Name        string
	Address     Address
	Resolution  uint8
	Correction  float32
	Temperature float32
	Status      Status
}

// Code returns the event code the probe publishes on.
func (s Sensor) Code() string {
	return codeFor(s.Name)
}

// Driver is the 1-Wire bus the manager reads probes through.
type Driver interface {
	// RequestConversion starts a temperature conversion on every probe.
	RequestConversion()

	// ReadTemperature returns the last converted value in °C, or
	// FaultSentinel when the probe does not answer.
	ReadTemperature(addr Address) float32

	// Discover lists the ROM addresses currently present on the bus.
	Discover() []Address

	SetResolution(addr Address, bits uint8)
	Resolution(addr Address) uint8
}

// System is the orchestrator surface the manager reports to.
type System interface {
	SetSensorsRead(bool)
	ElementRemoved(code string)
	ElementRenamed(prev, next string)
	SensorRemoved(index int)
}

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopSystem struct{}

func (noopSystem) SetSensorsRead(bool)           {}
func (noopSystem) ElementRemoved(string)         {}
func (noopSystem) ElementRenamed(string, string) {}
func (noopSystem) SensorRemoved(int)             {}
