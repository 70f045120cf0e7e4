package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/temptick-core/internal/bus"
	"github.com/nerrad567/temptick-core/internal/cloud"
	"github.com/nerrad567/temptick-core/internal/mqttlink"
	"github.com/nerrad567/temptick-core/internal/network"
	"github.com/nerrad567/temptick-core/internal/relay"
	"github.com/nerrad567/temptick-core/internal/scalar"
	"github.com/nerrad567/temptick-core/internal/sensors"
	"github.com/nerrad567/temptick-core/internal/settings"
	"github.com/nerrad567/temptick-core/internal/storage"
)

// Defaults.
const (
	DefaultSleepFlag    = false
	DefaultSleepTime    = 10 // minutes
	DefaultWorkTime     = 18 * time.Second
	DefaultSaveInterval = 5 * time.Second

	storeTimeout = 5 * time.Second
)

// Store persists the rendered settings buffer.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
}

// Suspender is told when the device goes to sleep.
type Suspender interface {
	Suspend(d time.Duration)
}

// Restarter is told when a soft restart is requested.
type Restarter interface {
	Restart()
}

// Button is the wake button. Holding it at boot disables sleep.
type Button interface {
	Pressed() bool
}

// Logger defines the logging interface used by the System.
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

// HaltReason tells the caller why the loop stopped.
type HaltReason uint8

const (
	Running HaltReason = iota
	Sleeping
	Restarting
)

// String returns the reason name.
func (r HaltReason) String() string {
	switch r {
	case Sleeping:
		return "sleeping"
	case Restarting:
		return "restarting"
	default:
		return "running"
	}
}

// Requirements are the per-wake completion flags.
type Requirements struct {
	SensorsRead bool `json:"sensors_read"`
	MqttSent    bool `json:"mqtt_sent"`
	CloudSent   bool `json:"cloud_sent"`
}

// Done reports whether every flag is set.
func (r Requirements) Done() bool {
	return r.SensorsRead && r.MqttSent && r.CloudSent
}

// Config holds orchestrator timings.
type Config struct {
	SettingsCapacity int
	WorkTime         time.Duration
	SaveInterval     time.Duration
}

// Deps are the collaborators the orchestrator owns or calls.
type Deps struct {
	Sensors *sensors.Manager
	Relay   *relay.Manager
	Network *network.Manager
	MQTT    *mqttlink.Manager
	Cloud   *cloud.Manager

	Store     Store
	Suspender Suspender
	Restarter Restarter
	Button    Button
	Logger    Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// System is the orchestrator. All methods run on the tick loop goroutine.
type System struct {
	cfg Config

	sensors *sensors.Manager
	relay   *relay.Manager
	network *network.Manager
	mqtt    *mqttlink.Manager
	cloud   *cloud.Manager

	store     Store
	suspender Suspender
	restarter Restarter
	button    Button
	logger    Logger
	now       func() time.Time
	observers *bus.Registry
	local     *bus.Registry

	sleepFlag bool
	sleepTime uint8
	reqs      Requirements

	saveRequest bool
	lastSave    time.Time
	workStart   time.Time
	workStarted bool

	halt HaltReason
}

// New creates an orchestrator. Begin must be called before Tick.
func New(cfg Config, d Deps) *System {
	if cfg.SettingsCapacity <= 0 {
		cfg.SettingsCapacity = settings.DefaultCapacity
	}
	if cfg.WorkTime <= 0 {
		cfg.WorkTime = DefaultWorkTime
	}
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = DefaultSaveInterval
	}

	s := &System{
		cfg:       cfg,
		sensors:   d.Sensors,
		relay:     d.Relay,
		network:   d.Network,
		mqtt:      d.MQTT,
		cloud:     d.Cloud,
		store:     d.Store,
		suspender: d.Suspender,
		restarter: d.Restarter,
		button:    d.Button,
		logger:    d.Logger,
		now:       d.Now,
		observers: bus.NewRegistry(0),
		local:     bus.NewRegistry(0),
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.MakeDefault()
	return s
}

// MakeDefault restores the system settings and clears the wake state.
func (s *System) MakeDefault() {
	s.sleepFlag = DefaultSleepFlag
	s.sleepTime = DefaultSleepTime
	s.reqs = Requirements{}
	s.saveRequest = false
	s.workStarted = false
	s.halt = Running
}

// Begin wires the observer graph, loads settings and starts every manager.
func (s *System) Begin() {
	s.observers.AddObserver(s.mqtt)

	s.sensors.SetSystem(s)
	s.sensors.AddObserver(s.mqtt)
	s.sensors.AddObserver(s.cloud)

	s.relay.AddObserver(s.mqtt)
	s.relay.AddObserver(s.cloud)

	s.network.SetSystem(s)

	s.mqtt.SetSystem(s)
	s.mqtt.AddObserver(s)
	s.mqtt.AddObserver(s.sensors)
	s.mqtt.AddObserver(s.relay)

	s.cloud.SetSystem(s)
	s.cloud.AddObserver(s)
	s.cloud.AddObserver(s.relay)

	s.local.AddObserver(s)
	s.local.AddObserver(s.sensors)
	s.local.AddObserver(s.relay)

	s.readSettings()
	now := s.now()

	if s.button != nil && s.button.Pressed() {
		s.logger.Info("wake button held, sleep disabled")
		s.SetSleepFlag(false)
	}

	s.sensors.Begin()
	s.relay.Begin()
	s.network.Begin()
	s.mqtt.Begin(now)
	s.cloud.Begin(now)
	s.network.EndBegin()

	s.lastSave = now
	s.logger.Info("system started", "sleep", s.sleepFlag, "sleep_time_min", s.sleepTime)
}

// AddEventTap registers a non-claiming observer on every producer. Producers
// broadcast, so the tap sees every event whatever its position.
func (s *System) AddEventTap(fn func(code string, v scalar.Value)) {
	tap := bus.Tap(fn)
	s.observers.AddObserver(tap)
	s.sensors.AddObserver(tap)
	s.relay.AddObserver(tap)
}

// Push offers an event raised by the local UI to the same consumers as an
// inbound transport message. It reports whether one claimed it.
func (s *System) Push(code string, v scalar.Value) bool {
	return s.local.Notify(code, v)
}

// Tick runs one loop iteration. It does nothing once halted.
func (s *System) Tick() {
	if s.halt != Running {
		return
	}
	now := s.now()

	if s.sleepFlag {
		if !s.workStarted {
			s.workStarted = true
			s.workStart = now
		} else if now.Sub(s.workStart) > s.cfg.WorkTime {
			s.suspend("work time exceeded")
			return
		}
	}

	s.sensors.Tick(now)
	if !s.sleepFlag {
		s.relay.Tick(now)
	}
	s.network.Tick(now)
	s.mqtt.Tick(now)
	s.cloud.Tick(now)
	if s.halt != Running {
		return
	}

	s.saveSettings(now, false)

	if s.sleepFlag && s.reqs.Done() {
		s.suspend("wake work complete")
	}
}

// PumpTick runs Tick from inside a blocking network connect.
func (s *System) PumpTick() { s.Tick() }

func (s *System) suspend(reason string) {
	if s.halt != Running {
		return
	}
	if s.saveRequest {
		s.saveSettings(s.now(), true)
	}
	d := s.SleepDuration()
	s.logger.Info("suspending", "reason", reason, "duration", d.String(),
		"sensors_read", s.reqs.SensorsRead, "mqtt_sent", s.reqs.MqttSent, "cloud_sent", s.reqs.CloudSent)
	s.halt = Sleeping
	if s.suspender != nil {
		s.suspender.Suspend(d)
	}
}

// Halted returns why the loop stopped, or Running.
func (s *System) Halted() HaltReason { return s.halt }

// SleepDuration returns how long a suspension lasts.
func (s *System) SleepDuration() time.Duration {
	return time.Duration(s.sleepTime) * time.Minute
}

// ─── Completion flags ───────────────────────────────────────────────

// SetSensorsRead sets the sensors-read flag.
func (s *System) SetSensorsRead(v bool) { s.reqs.SensorsRead = v }

// SetMqttSent sets the mqtt-sent flag. Ignored until sensors have been read.
func (s *System) SetMqttSent(v bool) {
	if s.reqs.SensorsRead {
		s.reqs.MqttSent = v
	}
}

// SetCloudSent sets the cloud-sent flag. Ignored until sensors have been read.
func (s *System) SetCloudSent(v bool) {
	if s.reqs.SensorsRead {
		s.reqs.CloudSent = v
	}
}

// Requirements returns the completion flags of the current wake.
func (s *System) Requirements() Requirements { return s.reqs }

// ─── Sleep settings ─────────────────────────────────────────────────

// SleepArmed reports whether the sleep flag is set.
func (s *System) SleepArmed() bool { return s.sleepFlag }

// SleepFlag reports whether the sleep flag is set.
func (s *System) SleepFlag() bool { return s.sleepFlag }

// SetSleepFlag arms or disarms sleep and broadcasts the new value when it
// changes. Disarming restarts the work timer.
func (s *System) SetSleepFlag(v bool) {
	if v == s.sleepFlag {
		return
	}
	s.sleepFlag = v
	if !v {
		s.workStarted = false
	}
	s.observers.Broadcast(bus.SystemSleepFlag, scalar.Bool(v))
}

// SleepTime returns the sleep duration in minutes.
func (s *System) SleepTime() uint8 { return s.sleepTime }

// SetSleepTime sets the sleep duration in minutes and broadcasts it when it
// changes.
func (s *System) SetSleepTime(min uint8) {
	if min == s.sleepTime {
		return
	}
	s.sleepTime = min
	s.observers.Broadcast(bus.SystemSleepTime, scalar.Uint8(min))
}

// AddObserver registers a consumer for system setting changes.
func (s *System) AddObserver(c bus.Consumer) bool {
	return s.observers.AddObserver(c)
}

// HandleEvent applies remote system commands.
func (s *System) HandleEvent(code string, v scalar.Value) bool {
	switch code {
	case bus.SystemSleepFlag:
		s.SetSleepFlag(v.Bool())
		s.RequestSave()
		return true
	case bus.SystemSleepTime:
		s.SetSleepTime(v.Uint8())
		s.RequestSave()
		return true
	case bus.SystemReset:
		if v.Bool() {
			s.Reset()
		}
		return true
	}
	return false
}

// ─── Restart ────────────────────────────────────────────────────────

// Reset requests a soft restart. The loop halts after the current tick.
func (s *System) Reset() {
	if s.saveRequest {
		s.saveSettings(s.now(), true)
	}
	s.logger.Info("restart requested")
	s.halt = Restarting
	if s.restarter != nil {
		s.restarter.Restart()
	}
}

// ResetAll erases persisted settings and restarts.
func (s *System) ResetAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	s.saveRequest = false
	if err := s.store.Remove(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("erasing settings: %w", err)
	}
	s.Reset()
	return nil
}

// ─── Element codes ──────────────────────────────────────────────────

// ElementCodes returns every event code the device produces or accepts.
func (s *System) ElementCodes() []string {
	codes := []string{bus.SystemSleepFlag, bus.SystemSleepTime, bus.SystemReset}
	codes = append(codes, s.sensors.ElementCodes()...)
	codes = append(codes, s.relay.ElementCodes()...)
	codes = append(codes, s.network.ElementCodes()...)
	codes = append(codes, s.mqtt.ElementCodes()...)
	codes = append(codes, s.cloud.ElementCodes()...)
	return codes
}

// ElementCodeIndex returns the position of code in codes, or -1.
func ElementCodeIndex(codes []string, code string) int {
	for i, c := range codes {
		if c == code {
			return i
		}
	}
	return -1
}

// ElementRemoved drops the cloud link bound to a code that no longer exists.
func (s *System) ElementRemoved(code string) {
	if s.cloud.DeleteLinkByCode(code) {
		s.logger.Info("cloud link removed with element", "code", code)
	}
}

// SensorRemoved keeps the thermostat bound to the same probe after a delete.
func (s *System) SensorRemoved(i int) {
	s.relay.SensorRemoved(i)
}

// ElementRenamed moves the cloud link bound to prev onto next.
func (s *System) ElementRenamed(prev, next string) {
	s.cloud.RenameCode(prev, next)
}

// ─── Accessors ──────────────────────────────────────────────────────

// Sensors returns the sensors manager.
func (s *System) Sensors() *sensors.Manager { return s.sensors }

// Relay returns the relay manager.
func (s *System) Relay() *relay.Manager { return s.relay }

// Network returns the network manager.
func (s *System) Network() *network.Manager { return s.network }

// MQTT returns the MQTT manager.
func (s *System) MQTT() *mqttlink.Manager { return s.mqtt }

// Cloud returns the cloud manager.
func (s *System) Cloud() *cloud.Manager { return s.cloud }
