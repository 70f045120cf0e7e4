// Package cloud maps event codes onto the virtual ports of a remote
// dashboard.
//
// The link table binds up to MaxLinks event codes to port numbers. An event
// whose code matches a link is claimed and written to that port; once the
// transport confirms the write, the cloud-sent completion flag is raised.
// Remote writes to a port travel the other way: the transport calls the
// write handler registered in New (from any goroutine), the write is queued,
// and Tick resolves it to the linked code and offers it to the observers with
// first-claim delivery.
//
// The link table is keyed by code. Renaming or removing a probe elsewhere is
// reflected here through RenameCode and DeleteLinkByCode.
package cloud

import (
	"time"

	"github.com/nerrad567/temptick-core/internal/bus"
	"github.com/nerrad567/temptick-core/internal/collection"
	"github.com/nerrad567/temptick-core/internal/scalar"
	"github.com/nerrad567/temptick-core/internal/settings"
)

// Limits and defaults.
const (
	MaxLinks          = 20
	MaxAuthLen        = 34
	MaxCodeLen        = 39
	DefaultWork       = true
	ReconnectInterval = 20 * time.Second

	writeQueueSize = 32
	maxPending     = 32
)

// Link binds an event code to a virtual port.
type Link struct {
	Port uint8  `json:"port"`
	Code string `json:"code"`
}

// RemoteWrite is a value pushed to a virtual port from the dashboard.
type RemoteWrite struct {
	Port  uint8
	Value float32
}

// WriteHandler receives remote writes. It is safe to call from any goroutine.
type WriteHandler func(port uint8, value float32)

// Delivery tracks an asynchronous port write.
type Delivery interface {
	Done() <-chan struct{}
	Error() error
}

// Transport is the dashboard client.
type Transport interface {
	Connect(auth string) error
	Connected() bool
	VirtualWrite(port uint8, v scalar.Value) (Delivery, error)
	Disconnect()
	// SetWriteHandler registers the callback for remote port writes.
	SetWriteHandler(WriteHandler)
}

// System is the orchestrator surface the manager reports to.
type System interface {
	SetCloudSent(bool)
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

func (noopSystem) SetCloudSent(bool) {}

// Manager owns the link table and the dashboard session.
type Manager struct {
	transport Transport
	network   NetworkStatus
	system    System
	logger    Logger
	observers *bus.Registry

	work  bool
	auth  string
	links *collection.List[Link]

	writes       chan RemoteWrite
	resetRequest bool
	lastConnect  time.Time
	connectTried bool
	pending      []Delivery
}

// New creates a cloud manager and registers its write handler with
// transport.
func New(transport Transport, network NetworkStatus) *Manager {
	m := &Manager{
		transport: transport,
		network:   network,
		system:    noopSystem{},
		logger:    noopLogger{},
		observers: bus.NewRegistry(0),
		links:     collection.New[Link](MaxLinks),
		writes:    make(chan RemoteWrite, writeQueueSize),
	}
	transport.SetWriteHandler(m.enqueueWrite)
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

// MakeDefault clears the link table and restores default settings.
func (m *Manager) MakeDefault() {
	m.work = DefaultWork
	m.auth = ""
	m.links.Clear()
	m.resetRequest = true
	m.connectTried = false
	m.pending = m.pending[:0]
}

// Begin runs a first tick.
func (m *Manager) Begin(now time.Time) {
	m.Tick(now)
}

// enqueueWrite is the transport's write handler. Writes arriving faster than
// Tick drains them are dropped.
func (m *Manager) enqueueWrite(port uint8, value float32) {
	select {
	case m.writes <- RemoteWrite{Port: port, Value: value}:
	default:
		m.logger.Warn("cloud write queue full, dropping write", "port", port)
	}
}

// Tick advances the connection state machine and applies remote writes.
func (m *Manager) Tick(now time.Time) {
	if m.resetRequest {
		m.resetRequest = false
		m.off()
	}

	if !m.work || m.auth == "" || !m.network.Connected() {
		return
	}

	if !m.transport.Connected() {
		m.connect(now)
	}

	m.drainWrites()
	m.pollDeliveries()
}

func (m *Manager) connect(now time.Time) {
	if m.connectTried && now.Sub(m.lastConnect) < ReconnectInterval {
		return
	}
	m.connectTried = true
	m.lastConnect = now

	if err := m.transport.Connect(m.auth); err != nil {
		m.logger.Warn("cloud connect failed", "error", err)
		return
	}
	m.logger.Info("cloud connected", "links", m.links.Len())
}

// off drops the session. Nothing is disconnected when none was opened.
func (m *Manager) off() {
	if m.connectTried || m.transport.Connected() {
		m.transport.Disconnect()
	}
	m.connectTried = false
	m.pending = m.pending[:0]
}

func (m *Manager) drainWrites() {
	for {
		select {
		case w := <-m.writes:
			idx := m.links.IndexFunc(func(l Link) bool { return l.Port == w.Port })
			if idx < 0 {
				m.logger.Debug("remote write to unlinked port", "port", w.Port)
				continue
			}
			l, _ := m.links.At(idx)
			m.observers.Notify(l.Code, scalar.Float(w.Value))
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
				m.logger.Warn("cloud write failed", "error", err)
				continue
			}
			m.system.SetCloudSent(true)
		default:
			kept = append(kept, d)
		}
	}
	m.pending = kept
}

// AddObserver registers a consumer for remote writes.
func (m *Manager) AddObserver(c bus.Consumer) bool {
	return m.observers.AddObserver(c)
}

// HandleEvent writes the event to the port linked to its code and claims it.
// Unlinked codes, a disabled link or a missing session leave it unclaimed.
func (m *Manager) HandleEvent(code string, v scalar.Value) bool {
	if !m.work || !m.transport.Connected() {
		return false
	}
	idx := m.LinkIndex(code)
	if idx < 0 {
		return false
	}
	l, _ := m.links.At(idx)

	d, err := m.transport.VirtualWrite(l.Port, v)
	if err != nil {
		m.logger.Warn("cloud write rejected", "port", l.Port, "code", code, "error", err)
		return false
	}
	if d != nil && len(m.pending) < maxPending {
		m.pending = append(m.pending, d)
	}
	return true
}

// ElementCodes returns nil; the cloud link has no codes of its own.
func (m *Manager) ElementCodes() []string { return nil }

// Connected reports whether the dashboard session is up.
func (m *Manager) Connected() bool { return m.transport.Connected() }

// ─── Link table ─────────────────────────────────────────────────────

// AddLink appends an empty link whose port defaults to its index.
func (m *Manager) AddLink() bool {
	return m.links.Add(Link{Port: uint8(m.links.Len())})
}

// DeleteLink removes link i.
func (m *Manager) DeleteLink(i int) bool { return m.links.Delete(i) }

// DeleteLinkByCode removes the first link bound to code.
func (m *Manager) DeleteLinkByCode(code string) bool {
	return m.links.Delete(m.LinkIndex(code))
}

// RenameCode rebinds the first link on prev to next.
func (m *Manager) RenameCode(prev, next string) bool {
	idx := m.LinkIndex(prev)
	if idx < 0 {
		return false
	}
	return m.SetLinkCode(idx, next)
}

// SetLinkPort sets the port of link i.
func (m *Manager) SetLinkPort(i int, port uint8) bool {
	l := m.links.Ref(i)
	if l == nil {
		return false
	}
	l.Port = port
	return true
}

// SetLinkCode sets the event code of link i, cut to MaxCodeLen.
func (m *Manager) SetLinkCode(i int, code string) bool {
	l := m.links.Ref(i)
	if l == nil {
		return false
	}
	l.Code = settings.Truncate(code, MaxCodeLen)
	return true
}

// LinkIndex returns the index of the first link bound to code, or -1.
func (m *Manager) LinkIndex(code string) int {
	return m.links.IndexFunc(func(l Link) bool { return l.Code == code })
}

// LinkCount returns the number of links.
func (m *Manager) LinkCount() int { return m.links.Len() }

// Link returns link i.
func (m *Manager) Link(i int) (Link, bool) { return m.links.At(i) }

// Links returns a copy of the link table.
func (m *Manager) Links() []Link { return m.links.Slice() }

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

// SetAuth sets the dashboard token and schedules a reconnect.
func (m *Manager) SetAuth(auth string) {
	auth = settings.Truncate(auth, MaxAuthLen)
	m.auth = auth
	m.resetRequest = true
}

// Auth returns the dashboard token.
func (m *Manager) Auth() string { return m.auth }

const (
	keyWork     = "BSwf"
	keyAuth     = "BSa"
	keyLinkPort = "BSLp"
	keyLinkCode = "BSLe"
)

// WriteSettings serialises the work flag, token and link table.
func (m *Manager) WriteSettings(b *settings.Buffer) {
	b.SetBool(keyWork, m.work)
	b.SetString(keyAuth, m.auth)
	m.links.Each(func(i int, l Link) bool {
		b.SetUint8(settings.IndexedKey(keyLinkPort, i), l.Port)
		b.SetString(settings.IndexedKey(keyLinkCode, i), l.Code)
		return true
	})
}

// ReadSettings restores the settings and rebuilds the link table, probing
// codes from index 0 until the first gap.
func (m *Manager) ReadSettings(b *settings.Buffer) {
	work, auth := m.work, m.auth
	b.GetBool(keyWork, &work)
	b.GetString(keyAuth, &auth, MaxAuthLen)

	for i := 0; ; i++ {
		var code string
		if !b.GetString(settings.IndexedKey(keyLinkCode, i), &code, MaxCodeLen) {
			break
		}
		if !m.AddLink() {
			m.logger.Warn("link table full, ignoring persisted link", "index", i)
			break
		}
		idx := m.links.Len() - 1
		m.SetLinkCode(idx, code)
		var port uint8
		if b.GetUint8(settings.IndexedKey(keyLinkPort, i), &port) {
			m.SetLinkPort(idx, port)
		}
	}

	m.SetWork(work)
	m.SetAuth(auth)
}
