package mqttlink

import (
	"time"

	"github.com/nerrad567/temptick-core/internal/bus"
	"github.com/nerrad567/temptick-core/internal/scalar"
	"github.com/nerrad567/temptick-core/internal/settings"
)

// Limits and defaults.
const (
	MaxServerLen      = 59
	MaxCredentialLen  = 19
	DefaultPort       = 1883
	DefaultWork       = true
	ReconnectInterval = 20 * time.Second

	// SubscribeAll is the wildcard subscription taken on every connect.
	SubscribeAll = "/#"

	maxPending        = 32
	maxInboundPerTick = 32
)

// Credentials identify the broker session.
type Credentials struct {
	Server   string
	Port     uint16
	Username string
	Password string
}

// Message is one inbound publish.
type Message struct {
	Topic   string
	Payload []byte
}

// Delivery tracks an asynchronous publish. paho's Token satisfies it.
type Delivery interface {
	Done() <-chan struct{}
	Error() error
}

// Transport is the broker client.
type Transport interface {
	Connect(creds Credentials) error
	Connected() bool
	Publish(topic string, payload []byte) (Delivery, error)
	Subscribe(topic string) error
	// Inbound returns the queue inbound messages are delivered on.
	Inbound() <-chan Message
	Disconnect()
}

// System is the orchestrator surface the manager reports to.
type System interface {
	SetMqttSent(bool)
}

// NetworkStatus reports whether the upstream link is up.
type NetworkStatus interface {
	Connected() bool
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

type noopSystem struct{}

func (noopSystem) SetMqttSent(bool) {}

// Manager owns the MQTT settings and session.
type Manager struct {
	transport Transport
	network   NetworkStatus
	system    System
	logger    Logger
	observers *bus.Registry

	work     bool
	server   string
	port     uint16
	username string
	password string

	resetRequest bool
	lastConnect  time.Time
	connectTried bool
	pending      []Delivery
}

// New creates an MQTT manager over transport, gated on network.
func New(transport Transport, network NetworkStatus) *Manager {
	m := &Manager{
		transport: transport,
		network:   network,
		system:    noopSystem{},
		logger:    noopLogger{},
		observers: bus.NewRegistry(0),
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

// MakeDefault restores default settings and schedules a reset.
func (m *Manager) MakeDefault() {
	m.work = DefaultWork
	m.server = ""
	m.port = DefaultPort
	m.username, m.password = "", ""
	m.resetRequest = true
	m.connectTried = false
	m.pending = m.pending[:0]
}

// Begin runs a first tick.
func (m *Manager) Begin(now time.Time) {
	m.Tick(now)
}

// Tick advances the connection state machine.
func (m *Manager) Tick(now time.Time) {
	if m.resetRequest {
		m.resetRequest = false
		m.off()
	}

	if !m.work || m.server == "" || !m.network.Connected() {
		return
	}

	if !m.transport.Connected() {
		m.connect(now)
	}

	m.drainInbound()
	m.pollDeliveries()
}

func (m *Manager) connect(now time.Time) {
	if m.connectTried && now.Sub(m.lastConnect) < ReconnectInterval {
		return
	}
	m.connectTried = true
	m.lastConnect = now

	creds := Credentials{Server: m.server, Port: m.port, Username: m.username, Password: m.password}
	if err := m.transport.Connect(creds); err != nil {
		m.logger.Warn("mqtt connect failed", "server", m.server, "port", m.port, "error", err)
		return
	}
	if err := m.transport.Subscribe(SubscribeAll); err != nil {
		m.logger.Warn("mqtt subscribe failed", "topic", SubscribeAll, "error", err)
	}
	m.logger.Info("mqtt connected", "server", m.server, "port", m.port)
}

// off drops the session. Nothing is disconnected when none was opened.
func (m *Manager) off() {
	if m.connectTried || m.transport.Connected() {
		m.transport.Disconnect()
	}
	m.connectTried = false
	m.pending = m.pending[:0]
}

func (m *Manager) drainInbound() {
	in := m.transport.Inbound()
	for i := 0; i < maxInboundPerTick; i++ {
		select {
		case msg, ok := <-in:
			if !ok {
				return
			}
			v := scalar.Float(scalar.ParseFloat(string(msg.Payload)))
			m.observers.Notify(msg.Topic, v)
		default:
			return
		}
	}
}

func (m *Manager) pollDeliveries() {
	kept := m.pending[:0]
	for _, d := range m.pending {
		select {
		case <-d.Done():
			if err := d.Error(); err != nil {
				m.logger.Warn("mqtt publish failed", "error", err)
				continue
			}
			m.system.SetMqttSent(true)
		default:
			kept = append(kept, d)
		}
	}
	m.pending = kept
}

// AddObserver registers a consumer for inbound messages.
func (m *Manager) AddObserver(c bus.Consumer) bool {
	return m.observers.AddObserver(c)
}

// HandleEvent publishes the event and claims it when the transport accepts
// the publish.
func (m *Manager) HandleEvent(code string, v scalar.Value) bool {
	if !m.work || !m.transport.Connected() {
		return false
	}
	d, err := m.transport.Publish(code, []byte(v.Format()))
	if err != nil {
		m.logger.Warn("mqtt publish rejected", "topic", code, "error", err)
		return false
	}
	if d != nil && len(m.pending) < maxPending {
		m.pending = append(m.pending, d)
	}
	return true
}

// ElementCodes returns nil; topics are mapped dynamically.
func (m *Manager) ElementCodes() []string { return nil }

// Connected reports whether the broker session is up.
func (m *Manager) Connected() bool { return m.transport.Connected() }

// ─── Settings ───────────────────────────────────────────────────────

// SetWork enables or disables the link. Disabling drops the session.
func (m *Manager) SetWork(on bool) {
	m.work = on
	if !on {
		m.off()
	}
}

// Work reports whether the link is enabled.
func (m *Manager) Work() bool { return m.work }

// SetServer sets the broker address and schedules a reconnect.
func (m *Manager) SetServer(server string, port uint16) {
	m.server = clip(server, MaxServerLen)
	m.port = port
	m.resetRequest = true
}

// Server returns the broker address.
func (m *Manager) Server() (string, uint16) { return m.server, m.port }

// SetAccess sets the broker credentials and schedules a reconnect.
func (m *Manager) SetAccess(username, password string) {
	m.username = clip(username, MaxCredentialLen)
	m.password = clip(password, MaxCredentialLen)
	m.resetRequest = true
}

// Access returns the broker credentials.
func (m *Manager) Access() (string, string) { return m.username, m.password }

func clip(s string, n int) string { return settings.Truncate(s, n) }

const (
	keyWork     = "MSwf"
	keyServer   = "MSSs"
	keyPort     = "MSSp"
	keyUsername = "MSAs"
	keyPassword = "MSAp"
)

// WriteSettings serialises the MQTT settings.
func (m *Manager) WriteSettings(b *settings.Buffer) {
	b.SetBool(keyWork, m.work)
	b.SetString(keyServer, m.server)
	b.SetUint16(keyPort, m.port)
	b.SetString(keyUsername, m.username)
	b.SetString(keyPassword, m.password)
}

// ReadSettings restores the MQTT settings.
func (m *Manager) ReadSettings(b *settings.Buffer) {
	work, server, port := m.work, m.server, m.port
	username, password := m.username, m.password

	b.GetBool(keyWork, &work)
	b.GetString(keyServer, &server, MaxServerLen)
	b.GetUint16(keyPort, &port)
	b.GetString(keyUsername, &username, MaxCredentialLen)
	b.GetString(keyPassword, &password, MaxCredentialLen)

	m.SetWork(work)
	m.SetServer(server, port)
	m.SetAccess(username, password)
}
