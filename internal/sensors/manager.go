package sensors

import (
	"math"
	"time"

	"github.com/nerrad567/temptick-core/internal/bus"
	"github.com/nerrad567/temptick-core/internal/collection"
	"github.com/nerrad567/temptick-core/internal/scalar"
	"github.com/nerrad567/temptick-core/internal/settings"
)

// Manager owns the probe table. It is driven from the tick loop and is not
// safe for concurrent use.
type Manager struct {
	driver    Driver
	system    System
	logger    Logger
	observers *bus.Registry

	sensors      *collection.List[Sensor]
	readInterval uint8

	lastRead time.Time
	readOnce bool
}

// New creates a sensors manager reading through driver.
func New(driver Driver) *Manager {
	m := &Manager{
		driver:    driver,
		system:    noopSystem{},
		logger:    noopLogger{},
		observers: bus.NewRegistry(0),
		sensors:   collection.New[Sensor](MaxSensors),
	}
	m.MakeDefault()
	return m
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// SetSystem injects the orchestrator back-reference.
func (m *Manager) SetSystem(s System) {
	if s == nil {
		s = noopSystem{}
	}
	m.system = s
}

// MakeDefault clears the probe table and restores default settings.
// Registered observers are kept.
func (m *Manager) MakeDefault() {
	m.sensors.Clear()
	m.readInterval = DefaultReadInterval
	m.lastRead = time.Time{}
	m.readOnce = false
}

// Begin pushes each stored resolution to its probe.
func (m *Manager) Begin() {
	m.sensors.Each(func(i int, s Sensor) bool {
		if !s.Address.IsZero() {
			m.SetResolution(i, s.Resolution, true)
		}
		return true
	})
	m.logger.Info("sensors started", "probes", m.sensors.Len(), "read_interval_s", m.readInterval)
}

// Tick reads all probes when the read interval has elapsed.
func (m *Manager) Tick(now time.Time) {
	if m.readInterval == 0 {
		return
	}
	if m.readOnce && now.Sub(m.lastRead) < time.Duration(m.readInterval)*time.Second {
		return
	}
	m.readOnce = true
	m.lastRead = now
	m.UpdateReadings()
}

// UpdateReadings performs one conversion cycle and publishes every probe.
func (m *Manager) UpdateReadings() {
	m.driver.RequestConversion()

	for i := 0; i < m.sensors.Len(); i++ {
		s := m.sensors.Ref(i)
		s.Temperature, s.Status = classify(m.driver.ReadTemperature(s.Address), s.Correction)
		if s.Status != StatusOK {
			m.logger.Warn("probe fault", "name", s.Name, "address", s.Address.String(), "status", s.Status.String())
		}

		m.system.SetSensorsRead(true)
		m.observers.Broadcast(s.Code(), scalar.Float(s.Temperature))
	}
}

func classify(raw, correction float32) (float32, Status) {
	switch {
	case raw < disconnectedBelow:
		return raw, StatusDisconnected
	case raw == PowerOnValue:
		return raw, StatusPowerOnDefault
	default:
		return raw + correction, StatusOK
	}
}

// AddObserver registers a consumer for sensor readings.
func (m *Manager) AddObserver(c bus.Consumer) bool {
	return m.observers.AddObserver(c)
}

// HandleEvent claims sensor data echoes so they are not re-published.
func (m *Manager) HandleEvent(code string, _ scalar.Value) bool {
	return bus.HasPrefix(code, bus.SensorsData)
}

// ElementCodes returns the event code of every configured probe.
func (m *Manager) ElementCodes() []string {
	codes := make([]string, 0, m.sensors.Len())
	m.sensors.Each(func(_ int, s Sensor) bool {
		codes = append(codes, s.Code())
		return true
	})
	return codes
}

// ─── Table management ───────────────────────────────────────────────

// Add appends a probe with default name and resolution. It returns false
// when the table is full.
func (m *Manager) Add() bool {
	return m.sensors.Add(Sensor{
		Name:       DefaultName,
		Resolution: DefaultResolution,
		Status:     StatusUnspecified,
	})
}

// Delete removes probe i and drops any cloud link bound to its code. Probes
// after i move down one index.
func (m *Manager) Delete(i int) bool {
	s, ok := m.sensors.At(i)
	if !ok {
		return false
	}
	m.sensors.Delete(i)
	m.system.ElementRemoved(s.Code())
	m.system.SensorRemoved(i)
	return true
}

// Count returns the number of configured probes.
func (m *Manager) Count() int { return m.sensors.Len() }

// Sensor returns a copy of probe i.
func (m *Manager) Sensor(i int) (Sensor, bool) { return m.sensors.At(i) }

// Sensors returns a copy of the whole table.
func (m *Manager) Sensors() []Sensor { return m.sensors.Slice() }

// SetName renames probe i, cutting the name to MaxNameLen characters, and
// moves any cloud link from the old code to the new one.
func (m *Manager) SetName(i int, name string) bool {
	return m.setName(i, name, true)
}

func (m *Manager) setName(i int, name string, track bool) bool {
	s := m.sensors.Ref(i)
	if s == nil {
		return false
	}
	name = settings.Truncate(name, MaxNameLen)
	prev := s.Code()
	s.Name = name
	if track && prev != s.Code() {
		m.system.ElementRenamed(prev, s.Code())
	}
	return true
}

// SetAddress assigns a ROM address. With sync set the stored resolution is
// written to the newly addressed probe.
func (m *Manager) SetAddress(i int, addr Address, sync bool) bool {
	s := m.sensors.Ref(i)
	if s == nil || addr.IsZero() {
		return false
	}
	s.Address = addr
	if sync {
		m.SetResolution(i, s.Resolution, true)
	}
	return true
}

// SetResolution stores the conversion resolution, clamped to 9..12 bits.
// With sync set and an address assigned, the value is written to the probe
// and read back.
func (m *Manager) SetResolution(i int, bits uint8, sync bool) bool {
	s := m.sensors.Ref(i)
	if s == nil {
		return false
	}
	bits = min(max(bits, MinResolution), MaxResolution)
	if sync && !s.Address.IsZero() {
		m.driver.SetResolution(s.Address, bits)
		if got := m.driver.Resolution(s.Address); got != 0 {
			bits = got
		}
	}
	s.Resolution = bits
	return true
}

// SetCorrection stores the calibration offset, clamped to ±20 °C.
func (m *Manager) SetCorrection(i int, c float32) bool {
	s := m.sensors.Ref(i)
	if s == nil {
		return false
	}
	if math.IsNaN(float64(c)) {
		c = 0
	}
	s.Correction = min(max(c, -MaxCorrection), MaxCorrection)
	return true
}

// SetReadInterval sets the read period in seconds, clamped to 0..100.
// Zero disables reading.
func (m *Manager) SetReadInterval(sec int) {
	m.readInterval = uint8(min(max(sec, 0), MaxReadInterval))
}

// ReadInterval returns the read period in seconds.
func (m *Manager) ReadInterval() uint8 { return m.readInterval }

// Temperature returns the last reading of probe i, or 0 when out of range.
func (m *Manager) Temperature(i int) float32 {
	s, _ := m.sensors.At(i)
	return s.Temperature
}

// Status returns the classification of probe i, or StatusUnspecified when
// out of range.
func (m *Manager) Status(i int) Status {
	s, ok := m.sensors.At(i)
	if !ok {
		return StatusUnspecified
	}
	return s.Status
}

// Resolution returns the resolution of probe i. With sync set it is read
// back from the probe first.
func (m *Manager) Resolution(i int, sync bool) uint8 {
	s := m.sensors.Ref(i)
	if s == nil {
		return 0
	}
	if sync && !s.Address.IsZero() {
		if got := m.driver.Resolution(s.Address); got != 0 {
			s.Resolution = got
		}
	}
	return s.Resolution
}

// ─── Discovery ──────────────────────────────────────────────────────

// DiscoverAddresses scans the bus and returns every address found.
func (m *Manager) DiscoverAddresses() []Address {
	return m.driver.Discover()
}

// ReadTemperatureByAddress converts and reads a single probe, configured or
// not. Used by the UI to identify probes during setup.
func (m *Manager) ReadTemperatureByAddress(addr Address) float32 {
	m.driver.RequestConversion()
	return m.driver.ReadTemperature(addr)
}

// AddressIndex returns the position of addr in list, or -1.
func AddressIndex(list []Address, addr Address) int {
	for i, a := range list {
		if a == addr {
			return i
		}
	}
	return -1
}

// DuplicateNames returns the names used by more than one probe.
func (m *Manager) DuplicateNames() []string {
	seen := make(map[string]int, m.sensors.Len())
	var dups []string
	m.sensors.Each(func(_ int, s Sensor) bool {
		seen[s.Name]++
		if seen[s.Name] == 2 {
			dups = append(dups, s.Name)
		}
		return true
	})
	return dups
}

func codeFor(name string) string {
	return bus.SensorTempCode(name)
}

// ─── Settings ───────────────────────────────────────────────────────

// Settings keys.
const (
	keyReadInterval = "SSrdt"
	keyName         = "SSDSn"
	keyAddress      = "SSDSa"
	keyResolution   = "SSDSr"
	keyCorrection   = "SSDSc"
)

// WriteSettings serialises the read interval and the probe table.
func (m *Manager) WriteSettings(b *settings.Buffer) {
	b.SetUint8(keyReadInterval, m.readInterval)
	m.sensors.Each(func(i int, s Sensor) bool {
		b.SetString(settings.IndexedKey(keyName, i), s.Name)
		b.SetBytes(settings.IndexedKey(keyAddress, i), s.Address[:])
		b.SetUint8(settings.IndexedKey(keyResolution, i), s.Resolution)
		b.SetFloat(settings.IndexedKey(keyCorrection, i), s.Correction)
		return true
	})
}

// ReadSettings restores the read interval and rebuilds the probe table,
// probing names from index 0 until the first gap.
func (m *Manager) ReadSettings(b *settings.Buffer) {
	interval := m.readInterval
	b.GetUint8(keyReadInterval, &interval)
	m.SetReadInterval(int(interval))

	for i := 0; ; i++ {
		var name string
		if !b.GetString(settings.IndexedKey(keyName, i), &name, MaxNameLen) {
			break
		}
		if !m.Add() {
			m.logger.Warn("probe table full, ignoring persisted probe", "index", i)
			break
		}
		idx := m.sensors.Len() - 1
		m.setName(idx, name, false)

		var addr Address
		if b.GetBytes(settings.IndexedKey(keyAddress, i), addr[:]) {
			m.SetAddress(idx, addr, false)
		}
		var res uint8
		if b.GetUint8(settings.IndexedKey(keyResolution, i), &res) {
			m.SetResolution(idx, res, false)
		}
		var corr float32
		if b.GetFloat(settings.IndexedKey(keyCorrection, i), &corr) {
			m.SetCorrection(idx, corr)
		}
	}
}
