// Package relay drives the single output relay, either from explicit
// commands (simple mode) or from a two-point thermostat bound to one probe.
//
// The thermostat is bang-bang with hysteresis. In heating mode the relay
// switches on at t <= target-delta and off at t >= target; in cooling mode it
// switches on at t >= target+delta and off at t <= target. Between the two
// thresholds the current state is held, so a reading that oscillates inside
// the band never toggles the output.
//
// If the bound probe index is invalid or the probe reports a fault, the relay
// is driven to the configured fallback state.
package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/temptick-core/internal/bus"
	"github.com/nerrad567/temptick-core/internal/scalar"
	"github.com/nerrad567/temptick-core/internal/sensors"
	"github.com/nerrad567/temptick-core/internal/settings"
)

// Mode selects how the relay is driven.
type Mode uint8

const (
	ModeSimple     Mode = 0
	ModeThermostat Mode = 1
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeThermostat {
		return "thermostat"
	}
	return "simple"
}

// ParseMode converts "simple" or "thermostat" to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "simple":
		return ModeSimple, nil
	case "thermostat":
		return ModeThermostat, nil
	}
	return 0, fmt.Errorf("%w: mode %q", ErrUnknownName, name)
}

// ThermoMode selects the thermostat direction.
type ThermoMode uint8

const (
	Heating ThermoMode = 0
	Cooling ThermoMode = 1
)

// String returns the direction name.
func (m ThermoMode) String() string {
	if m == Cooling {
		return "cooling"
	}
	return "heating"
}

// ParseThermoMode converts "heating" or "cooling" to a ThermoMode.
func ParseThermoMode(name string) (ThermoMode, error) {
	switch name {
	case "heating":
		return Heating, nil
	case "cooling":
		return Cooling, nil
	}
	return 0, fmt.Errorf("%w: thermostat mode %q", ErrUnknownName, name)
}

// ThermostatStatus reports whether the bound probe can be used.
type ThermostatStatus uint8

const (
	ThermostatOK            ThermostatStatus = 0
	ThermostatInvalidSensor ThermostatStatus = 1
	ThermostatSensorFault   ThermostatStatus = 2
)

func (s ThermostatStatus) String() string {
	switch s {
	case ThermostatOK:
		return "ok"
	case ThermostatInvalidSensor:
		return "invalid_sensor"
	default:
		return "sensor_fault"
	}
}

// ErrUnknownName is returned by the name parsers.
var ErrUnknownName = errors.New("relay: unknown name")

// Defaults.
const (
	DefaultInvert         = true
	DefaultMode           = ModeSimple
	DefaultSensorIndex    = -1
	DefaultTarget float32 = 20.0
	DefaultDelta  float32 = 1.0
	DefaultThermoMode     = Heating
	DefaultFallback       = false
)

// Pin is the physical output.
type Pin interface {
	Write(level bool)
}

// SensorSource exposes the probe readings the thermostat follows.
type SensorSource interface {
	Count() int
	Temperature(i int) float32
	Status(i int) sensors.Status
}

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager owns the relay output and its thermostat settings.
type Manager struct {
	pin       Pin
	sensors   SensorSource
	logger    Logger
	observers *bus.Registry

	invert      bool
	mode        Mode
	sensorIndex int8
	target      float32
	delta       float32
	thermoMode  ThermoMode
	fallback    bool

	on bool
}

// New creates a relay manager writing to pin and following src.
func New(pin Pin, src SensorSource) *Manager {
	m := &Manager{
		pin:       pin,
		sensors:   src,
		logger:    noopLogger{},
		observers: bus.NewRegistry(0),
	}
	m.MakeDefault()
	return m
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// MakeDefault restores default settings and turns the relay off logically.
func (m *Manager) MakeDefault() {
	m.invert = DefaultInvert
	m.mode = DefaultMode
	m.sensorIndex = DefaultSensorIndex
	m.target = DefaultTarget
	m.delta = DefaultDelta
	m.thermoMode = DefaultThermoMode
	m.fallback = DefaultFallback
	m.on = false
}

// Begin forces the output to match the logical state.
func (m *Manager) Begin() {
	m.SetRelay(m.on, true)
}

// Tick re-applies the pin and, in thermostat mode, runs the control step.
func (m *Manager) Tick(_ time.Time) {
	m.apply()

	if m.mode != ModeThermostat {
		return
	}
	if m.ThermostatStatus() != ThermostatOK {
		m.SetRelay(m.fallback, false)
		return
	}

	t := m.sensors.Temperature(int(m.sensorIndex))
	switch m.thermoMode {
	case Heating:
		if t >= m.target {
			m.SetRelay(false, false)
		} else if t <= m.target-m.delta {
			m.SetRelay(true, false)
		}
	case Cooling:
		if t >= m.target+m.delta {
			m.SetRelay(true, false)
		} else if t <= m.target {
			m.SetRelay(false, false)
		}
	}
}

// SetRelay sets the logical output. The pin is written and the new state
// broadcast only when it changes or force is set.
func (m *Manager) SetRelay(on, force bool) {
	if m.on == on && !force {
		return
	}
	m.on = on
	m.apply()
	m.logger.Debug("relay switched", "on", on)
	m.observers.Broadcast(bus.RelayFlag, scalar.Bool(on))
}

func (m *Manager) apply() {
	m.pin.Write(m.on != m.invert)
}

// On returns the logical output state.
func (m *Manager) On() bool { return m.on }

// ThermostatStatus reports whether the bound probe is usable.
func (m *Manager) ThermostatStatus() ThermostatStatus {
	i := int(m.sensorIndex)
	if i < 0 || i >= m.sensors.Count() {
		return ThermostatInvalidSensor
	}
	if m.sensors.Status(i) != sensors.StatusOK {
		return ThermostatSensorFault
	}
	return ThermostatOK
}

// ThermostatTemperature returns the reading of the bound probe.
func (m *Manager) ThermostatTemperature() float32 {
	return m.sensors.Temperature(int(m.sensorIndex))
}

// ─── Settings accessors ─────────────────────────────────────────────

// SetInvert sets the output polarity and re-applies the pin.
func (m *Manager) SetInvert(invert bool) {
	m.invert = invert
	m.apply()
}

// Invert returns the output polarity.
func (m *Manager) Invert() bool { return m.invert }

// SetMode selects simple or thermostat mode. Unknown values select simple.
func (m *Manager) SetMode(mode Mode) {
	if mode > ModeThermostat {
		mode = ModeSimple
	}
	m.mode = mode
}

// Mode returns the drive mode.
func (m *Manager) Mode() Mode { return m.mode }

// SetSensorIndex binds the thermostat to probe i, clamped to -1..count-1.
func (m *Manager) SetSensorIndex(i int) {
	m.sensorIndex = int8(min(max(i, -1), m.sensors.Count()-1))
}

// SensorRemoved follows the bound probe after probe i is deleted. Losing the
// bound probe unbinds the thermostat, which then drives the fallback state.
func (m *Manager) SensorRemoved(i int) {
	switch idx := int(m.sensorIndex); {
	case idx == i:
		m.sensorIndex = -1
	case idx > i:
		m.sensorIndex--
	}
}

// SensorIndex returns the bound probe index, -1 for none.
func (m *Manager) SensorIndex() int { return int(m.sensorIndex) }

// SetTarget sets the thermostat target temperature.
func (m *Manager) SetTarget(t float32) { m.target = t }

// Target returns the thermostat target temperature.
func (m *Manager) Target() float32 { return m.target }

// SetDelta sets the hysteresis width. Negative values are treated as zero.
func (m *Manager) SetDelta(d float32) { m.delta = max(d, 0) }

// Delta returns the hysteresis width.
func (m *Manager) Delta() float32 { return m.delta }

// SetThermoMode selects heating or cooling. Unknown values select heating.
func (m *Manager) SetThermoMode(tm ThermoMode) {
	if tm > Cooling {
		tm = Heating
	}
	m.thermoMode = tm
}

// ThermoMode returns the thermostat direction.
func (m *Manager) ThermoMode() ThermoMode { return m.thermoMode }

// SetFallback sets the state used when the bound probe is unusable.
func (m *Manager) SetFallback(on bool) { m.fallback = on }

// Fallback returns the state used when the bound probe is unusable.
func (m *Manager) Fallback() bool { return m.fallback }

// ─── Bus ────────────────────────────────────────────────────────────

// AddObserver registers a consumer for relay state changes.
func (m *Manager) AddObserver(c bus.Consumer) bool {
	return m.observers.AddObserver(c)
}

// HandleEvent applies remote relay commands and claims relay data echoes.
func (m *Manager) HandleEvent(code string, v scalar.Value) bool {
	if code == bus.RelaySetFlag {
		m.SetRelay(v.Bool(), false)
		return true
	}
	return bus.HasPrefix(code, bus.RelayData)
}

// ElementCodes returns the codes the relay produces and consumes.
func (m *Manager) ElementCodes() []string {
	return []string{bus.RelayFlag, bus.RelaySetFlag}
}

// ─── Persistence ────────────────────────────────────────────────────

const (
	keyInvert      = "RSif"
	keyMode        = "RSm"
	keySensorIndex = "RSTsi"
	keyTarget      = "RSTst"
	keyDelta       = "RSTd"
	keyThermoMode  = "RSTm"
	keyFallback    = "RSTerf"
)

// WriteSettings serialises the relay settings.
func (m *Manager) WriteSettings(b *settings.Buffer) {
	b.SetBool(keyInvert, m.invert)
	b.SetUint8(keyMode, uint8(m.mode))
	b.SetInt8(keySensorIndex, m.sensorIndex)
	b.SetFloat(keyTarget, m.target)
	b.SetFloat(keyDelta, m.delta)
	b.SetUint8(keyThermoMode, uint8(m.thermoMode))
	b.SetBool(keyFallback, m.fallback)
}

// ReadSettings restores the relay settings. The probe table must already be
// loaded so the bound index can be validated.
func (m *Manager) ReadSettings(b *settings.Buffer) {
	invert, mode, idx := m.invert, uint8(m.mode), m.sensorIndex
	target, delta := m.target, m.delta
	tm, fallback := uint8(m.thermoMode), m.fallback

	b.GetBool(keyInvert, &invert)
	b.GetUint8(keyMode, &mode)
	b.GetInt8(keySensorIndex, &idx)
	b.GetFloat(keyTarget, &target)
	b.GetFloat(keyDelta, &delta)
	b.GetUint8(keyThermoMode, &tm)
	b.GetBool(keyFallback, &fallback)

	m.invert = invert
	m.SetMode(Mode(mode))
	m.SetSensorIndex(int(idx))
	m.SetTarget(target)
	m.SetDelta(delta)
	m.SetThermoMode(ThermoMode(tm))
	m.SetFallback(fallback)
}
