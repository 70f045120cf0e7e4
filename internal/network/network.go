package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/temptick-core/internal/bus"
	"github.com/nerrad567/temptick-core/internal/scalar"
	"github.com/nerrad567/temptick-core/internal/settings"
)

// Mode is the desired network configuration.
type Mode uint8

const (
	ModeOff                Mode = 0
	ModeStation            Mode = 1
	ModeAccessPointStation Mode = 2
	ModeAuto               Mode = 3
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeStation:
		return "station"
	case ModeAccessPointStation:
		return "ap_station"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name as returned by String back to a Mode.
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{ModeOff, ModeStation, ModeAccessPointStation, ModeAuto} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("network: unknown mode")

// RadioMode is the live radio configuration.
type RadioMode uint8

const (
	RadioOff RadioMode = iota
	RadioStation
	RadioAccessPoint
	RadioAccessPointStation
)

// Status is the station link state.
type Status uint8

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Limits and defaults.
const (
	MaxCredentialLen  = 14
	DefaultMode       = ModeAuto
	DefaultAPSSID     = "nztr_solar"
	DefaultAPPassword = "nazotronic"
	ReconnectInterval = 20 * time.Second

	connectPoll = 100 * time.Millisecond
)

// Radio is the network interface being managed.
type Radio interface {
	Mode() RadioMode
	SetMode(RadioMode)
	Status() Status
	Begin(ssid, pass string)
	Disconnect()
	ConfigureAccessPoint(ssid, pass string)
}

// UI is the local web interface served over the network.
type UI interface {
	Start() error
	Stop()
	Tick()
}

// System is the orchestrator surface the manager needs.
type System interface {
	SleepArmed() bool
	// PumpTick runs one orchestrator tick while Connect is waiting.
	PumpTick()
	RequestSave()
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

type noopUI struct{}

func (noopUI) Start() error { return nil }
func (noopUI) Stop()        {}
func (noopUI) Tick()        {}

type noopSystem struct{}

func (noopSystem) SleepArmed() bool { return false }
func (noopSystem) PumpTick()        {}
func (noopSystem) RequestSave()     {}

// Manager owns the network settings and the radio.
type Manager struct {
	radio  Radio
	ui     UI
	system System
	logger Logger
	now    func() time.Time
	sleep  func(time.Duration)

	mode    Mode
	staSSID string
	staPass string
	apSSID  string
	apPass  string

	resetRequest   bool
	tickAllowed    bool
	lastReconnect  time.Time
	reconnectTried bool
}

// New creates a network manager for radio.
func New(radio Radio) *Manager {
	m := &Manager{
		radio:  radio,
		ui:     noopUI{},
		system: noopSystem{},
		logger: noopLogger{},
		now:    time.Now,
		sleep:  time.Sleep,
	}
	m.MakeDefault()
	return m
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) { m.logger = logger }

// SetSystem injects the orchestrator back-reference.
func (m *Manager) SetSystem(s System) {
	if s == nil {
		s = noopSystem{}
	}
	m.system = s
}

// SetUI attaches the local web interface.
func (m *Manager) SetUI(ui UI) {
	if ui == nil {
		ui = noopUI{}
	}
	m.ui = ui
}

// SetClock replaces the time source and the wait function used by Connect.
func (m *Manager) SetClock(now func() time.Time, sleep func(time.Duration)) {
	m.now = now
	m.sleep = sleep
}

// MakeDefault restores default settings and schedules a radio reset.
func (m *Manager) MakeDefault() {
	m.mode = DefaultMode
	m.staSSID, m.staPass = "", ""
	m.apSSID, m.apPass = DefaultAPSSID, DefaultAPPassword
	m.resetRequest = true
	m.tickAllowed = true
	m.lastReconnect = time.Time{}
	m.reconnectTried = false
}

// Begin applies the access point settings and runs a first tick.
func (m *Manager) Begin() {
	m.radio.ConfigureAccessPoint(m.apSSID, m.apPass)
	m.Tick(m.now())
}

// EndBegin starts the local UI once every manager has begun.
func (m *Manager) EndBegin() {
	if m.system.SleepArmed() {
		return
	}
	if err := m.ui.Start(); err != nil {
		m.logger.Error("starting local ui", "error", err)
	}
}

// Tick reconciles the radio with the desired mode.
func (m *Manager) Tick(now time.Time) {
	if !m.tickAllowed {
		return
	}

	if m.resetRequest {
		m.resetRequest = false
		m.off()
	}

	switch m.mode {
	case ModeOff:
		if m.radio.Mode() != RadioOff {
			m.off()
		}
		return
	case ModeStation:
		m.ensure(RadioStation)
	case ModeAccessPointStation:
		m.ensure(RadioAccessPointStation)
	case ModeAuto:
		if m.Connected() {
			m.ensure(RadioStation)
		} else {
			m.ensure(RadioAccessPointStation)
		}
	}

	if m.WifiOn() && !m.Connected() {
		m.reconnect(now)
	}

	if !m.system.SleepArmed() {
		m.ui.Tick()
	}
}

func (m *Manager) ensure(rm RadioMode) {
	if m.radio.Mode() == rm {
		return
	}
	m.logger.Info("radio reconfigured", "mode", m.mode.String(), "radio_mode", rm)
	m.radio.SetMode(rm)
	if !m.system.SleepArmed() {
		m.ui.Stop()
		if err := m.ui.Start(); err != nil {
			m.logger.Error("restarting local ui", "error", err)
		}
	}
}

func (m *Manager) reconnect(now time.Time) bool {
	if m.reconnectTried && now.Sub(m.lastReconnect) < ReconnectInterval {
		return false
	}
	m.reconnectTried = true
	m.lastReconnect = now
	m.logger.Debug("connecting station", "ssid", m.staSSID)
	m.radio.Begin(m.staSSID, m.staPass)
	return true
}

func (m *Manager) off() {
	if !m.system.SleepArmed() {
		m.ui.Stop()
	}
	m.radio.Disconnect()
	m.radio.SetMode(RadioOff)
	m.reconnectTried = false
}

// Connect joins a network.
//
// With an empty ssid it performs the rate-limited background reconnect with
// the stored credentials and reports the current link state.
//
// Otherwise it switches the radio to station mode with the given
// credentials and blocks for up to timeout, or until ctx is done, pumping
// the system tick while it waits. On success with autoSave set the
// credentials are stored and a save is requested. A radio reset is
// scheduled either way so the configured mode is restored on the next tick.
//
// Returns:
//   - bool: true if the station link came up
func (m *Manager) Connect(ctx context.Context, ssid, pass string, timeout time.Duration, autoSave bool) bool {
	if ssid == "" {
		m.reconnect(m.now())
		return m.Connected()
	}

	m.tickAllowed = false
	defer func() {
		m.tickAllowed = true
		m.resetRequest = true
	}()

	m.off()
	m.radio.SetMode(RadioStation)
	m.radio.Begin(ssid, pass)

	connected := false
	start := m.now()
	for timeout > 0 && m.now().Sub(start) < timeout {
		if m.Connected() {
			connected = true
			break
		}
		if ctx.Err() != nil {
			break
		}
		m.system.PumpTick()
		m.sleep(connectPoll)
	}
	if !connected {
		connected = m.Connected()
	}

	m.logger.Info("manual connect finished", "ssid", ssid, "connected", connected)
	if autoSave && connected {
		m.SetWifi(ssid, pass)
		m.system.RequestSave()
	}
	return connected
}

// ─── Status ─────────────────────────────────────────────────────────

// Status returns the station link state.
func (m *Manager) Status() Status { return m.radio.Status() }

// Connected reports whether the station link is up.
func (m *Manager) Connected() bool { return m.radio.Status() == StatusConnected }

// WifiOn reports whether the station interface is enabled.
func (m *Manager) WifiOn() bool {
	rm := m.radio.Mode()
	return rm == RadioStation || rm == RadioAccessPointStation
}

// APOn reports whether the access point is enabled.
func (m *Manager) APOn() bool {
	rm := m.radio.Mode()
	return rm == RadioAccessPoint || rm == RadioAccessPointStation
}

// ─── Settings ───────────────────────────────────────────────────────

// SetMode sets the desired mode. Unknown values select Auto.
func (m *Manager) SetMode(mode Mode) {
	if mode > ModeAuto {
		mode = ModeAuto
	}
	m.mode = mode
}

// Mode returns the desired mode.
func (m *Manager) Mode() Mode { return m.mode }

// SetWifi stores station credentials, cut to MaxCredentialLen, and schedules
// a reconnect.
func (m *Manager) SetWifi(ssid, pass string) {
	m.staSSID = clip(ssid)
	m.staPass = clip(pass)
	m.resetRequest = true
}

// Wifi returns the station credentials.
func (m *Manager) Wifi() (ssid, pass string) { return m.staSSID, m.staPass }

// SetAccessPoint stores access point credentials. Empty values fall back to
// the defaults. The radio keeps its current mode.
func (m *Manager) SetAccessPoint(ssid, pass string) {
	if ssid == "" {
		ssid = DefaultAPSSID
	}
	if pass == "" {
		pass = DefaultAPPassword
	}
	m.apSSID = clip(ssid)
	m.apPass = clip(pass)

	rm := m.radio.Mode()
	m.radio.ConfigureAccessPoint(m.apSSID, m.apPass)
	m.radio.SetMode(rm)
}

// AccessPoint returns the access point credentials.
func (m *Manager) AccessPoint() (ssid, pass string) { return m.apSSID, m.apPass }

func clip(s string) string { return settings.Truncate(s, MaxCredentialLen) }

// AddObserver is a no-op; the network manager produces no events.
func (m *Manager) AddObserver(bus.Consumer) bool { return false }

// HandleEvent claims nothing.
func (m *Manager) HandleEvent(string, scalar.Value) bool { return false }

// ElementCodes returns nil; the network manager has no event codes.
func (m *Manager) ElementCodes() []string { return nil }

const (
	keyMode    = "SNm"
	keySTASSID = "SNWs"
	keySTAPass = "SNWp"
	keyAPSSID  = "SNAs"
	keyAPPass  = "SNAp"
)

// WriteSettings serialises the network settings.
func (m *Manager) WriteSettings(b *settings.Buffer) {
	b.SetUint8(keyMode, uint8(m.mode))
	b.SetString(keySTASSID, m.staSSID)
	b.SetString(keySTAPass, m.staPass)
	b.SetString(keyAPSSID, m.apSSID)
	b.SetString(keyAPPass, m.apPass)
}

// ReadSettings restores the network settings.
func (m *Manager) ReadSettings(b *settings.Buffer) {
	mode := uint8(m.mode)
	staSSID, staPass := m.staSSID, m.staPass
	apSSID, apPass := m.apSSID, m.apPass

	b.GetUint8(keyMode, &mode)
	b.GetString(keySTASSID, &staSSID, MaxCredentialLen)
	b.GetString(keySTAPass, &staPass, MaxCredentialLen)
	b.GetString(keyAPSSID, &apSSID, MaxCredentialLen)
	b.GetString(keyAPPass, &apPass, MaxCredentialLen)

	m.SetMode(Mode(mode))
	m.SetAccessPoint(apSSID, apPass)
	m.SetWifi(staSSID, staPass)
}
