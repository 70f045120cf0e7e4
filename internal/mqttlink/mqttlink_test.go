package mqttlink

import (
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/temptick-core/internal/scalar"
	"github.com/nerrad567/temptick-core/internal/settings"
)

// ─── Mock Dependencies ──────────────────────────────────────────────

type fakeDelivery struct {
	done chan struct{}
	err  error
}

func newDelivery() *fakeDelivery { return &fakeDelivery{done: make(chan struct{})} }

func (d *fakeDelivery) Done() <-chan struct{} { return d.done }
func (d *fakeDelivery) Error() error          { return d.err }

func (d *fakeDelivery) complete(err error) {
	d.err = err
	close(d.done)
}

type published struct {
	topic   string
	payload string
}

type fakeTransport struct {
	connected   bool
	failConnect bool
	connects    []Credentials
	subscribed  []string
	published   []published
	deliveries  []*fakeDelivery
	disconnects int
	inbound     chan Message
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan Message, 8)}
}

func (f *fakeTransport) Connect(c Credentials) error {
	f.connects = append(f.connects, c)
	if f.failConnect {
		return errors.New("refused")
	}
	f.connected = true
	return nil
}
func (f *fakeTransport) Connected() bool { return f.connected }
func (f *fakeTransport) Publish(topic string, payload []byte) (Delivery, error) {
	f.published = append(f.published, published{topic, string(payload)})
	d := newDelivery()
	f.deliveries = append(f.deliveries, d)
	return d, nil
}
func (f *fakeTransport) Subscribe(topic string) error {
	f.subscribed = append(f.subscribed, topic)
	return nil
}
func (f *fakeTransport) Inbound() <-chan Message { return f.inbound }
func (f *fakeTransport) Disconnect() {
	f.disconnects++
	f.connected = false
}

type fakeNetwork struct{ up bool }

func (n *fakeNetwork) Connected() bool { return n.up }

type fakeSystem struct{ sent bool }

func (s *fakeSystem) SetMqttSent(v bool) { s.sent = v }

type claimer struct {
	prefix string
	got    []string
	values []float32
}

func (c *claimer) HandleEvent(code string, v scalar.Value) bool {
	c.got = append(c.got, code)
	c.values = append(c.values, v.Float32())
	return len(code) >= len(c.prefix) && code[:len(c.prefix)] == c.prefix
}

func newTestManager(t *testing.T) (*Manager, *fakeTransport, *fakeNetwork, *fakeSystem) {
	t.Helper()
	tr := newFakeTransport()
	net := &fakeNetwork{up: true}
	sys := &fakeSystem{}
	m := New(tr, net)
	m.SetSystem(sys)
	m.SetServer("broker.local", 1883)
	return m, tr, net, sys
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestTick_ConnectsAndSubscribes(t *testing.T) {
	m, tr, _, _ := newTestManager(t)
	m.SetAccess("user", "pw")
	m.Tick(time.Unix(100, 0))

	if len(tr.connects) != 1 {
		t.Fatalf("connects = %d, want 1", len(tr.connects))
	}
	want := Credentials{Server: "broker.local", Port: 1883, Username: "user", Password: "pw"}
	if tr.connects[0] != want {
		t.Errorf("credentials = %+v, want %+v", tr.connects[0], want)
	}
	if len(tr.subscribed) != 1 || tr.subscribed[0] != "/#" {
		t.Errorf("subscribed = %v, want [/#]", tr.subscribed)
	}
}

func TestTick_IdleWhenGated(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Manager, net *fakeNetwork)
	}{
		{"disabled", func(m *Manager, _ *fakeNetwork) { m.SetWork(false) }},
		{"no server", func(m *Manager, _ *fakeNetwork) { m.SetServer("", 1883) }},
		{"network down", func(_ *Manager, net *fakeNetwork) { net.up = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, tr, net, _ := newTestManager(t)
			tt.setup(m, net)
			m.Tick(time.Unix(100, 0))
			if len(tr.connects) != 0 {
				t.Errorf("connected while %s", tt.name)
			}
		})
	}
}

func TestTick_ReconnectCooldown(t *testing.T) {
	m, tr, _, _ := newTestManager(t)
	tr.failConnect = true
	start := time.Unix(100, 0)

	m.Tick(start)
	m.Tick(start.Add(19 * time.Second))
	if len(tr.connects) != 1 {
		t.Fatalf("connects within cooldown = %d, want 1", len(tr.connects))
	}
	m.Tick(start.Add(20 * time.Second))
	if len(tr.connects) != 2 {
		t.Errorf("connects after cooldown = %d, want 2", len(tr.connects))
	}
}

func TestTick_ResetWithoutSessionSkipsDisconnect(t *testing.T) {
	m, tr, net, _ := newTestManager(t)
	net.up = false
	m.Tick(time.Unix(100, 0))
	if tr.disconnects != 0 {
		t.Errorf("disconnects = %d before any session, want 0", tr.disconnects)
	}

	net.up = true
	m.Tick(time.Unix(101, 0))
	m.SetServer("other.local", 1883)
	m.Tick(time.Unix(102, 0))
	if tr.disconnects != 1 {
		t.Errorf("disconnects = %d after a session, want 1", tr.disconnects)
	}
}

func TestSetAccess_ForcesReconnect(t *testing.T) {
	m, tr, _, _ := newTestManager(t)
	m.Tick(time.Unix(100, 0))
	disconnects := tr.disconnects

	m.SetAccess("new", "creds")
	m.Tick(time.Unix(101, 0))
	if tr.disconnects != disconnects+1 {
		t.Error("credential change did not drop the session")
	}
	if len(tr.connects) != 2 || tr.connects[1].Username != "new" {
		t.Errorf("reconnect credentials = %+v", tr.connects)
	}
}

func TestHandleEvent_PublishesAndClaims(t *testing.T) {
	m, tr, _, sys := newTestManager(t)
	if m.HandleEvent("/x", scalar.Bool(true)) {
		t.Error("claimed while disconnected")
	}

	m.Tick(time.Unix(100, 0))
	if !m.HandleEvent("/sensors/data/ds18b20/temp/T1", scalar.Float(23.4)) {
		t.Fatal("HandleEvent() = false while connected")
	}
	if got := tr.published[0]; got.topic != "/sensors/data/ds18b20/temp/T1" || got.payload != "23.40" {
		t.Errorf("published %+v", got)
	}
	if sys.sent {
		t.Error("mqtt-sent raised before broker acknowledgement")
	}
}

func TestTick_DeliveryCompletionRaisesSentFlag(t *testing.T) {
	m, tr, _, sys := newTestManager(t)
	m.Tick(time.Unix(100, 0))
	m.HandleEvent("/a", scalar.Uint8(1))
	m.HandleEvent("/b", scalar.Uint8(2))

	tr.deliveries[0].complete(errors.New("broker gone"))
	m.Tick(time.Unix(101, 0))
	if sys.sent {
		t.Error("failed delivery raised mqtt-sent")
	}
	if len(m.pending) != 1 {
		t.Errorf("pending = %d, want 1", len(m.pending))
	}

	tr.deliveries[1].complete(nil)
	m.Tick(time.Unix(102, 0))
	if !sys.sent {
		t.Error("acknowledged delivery did not raise mqtt-sent")
	}
}

func TestTick_InboundFirstClaim(t *testing.T) {
	m, tr, _, _ := newTestManager(t)
	first := &claimer{prefix: "/system"}
	second := &claimer{prefix: "/relay"}
	m.AddObserver(first)
	m.AddObserver(second)
	m.Tick(time.Unix(100, 0))

	tr.inbound <- Message{Topic: "/system/settings/sleep_time", Payload: []byte("15")}
	tr.inbound <- Message{Topic: "/relay/settings/relay_flag", Payload: []byte("1")}
	tr.inbound <- Message{Topic: "/other", Payload: []byte("garbage")}
	m.Tick(time.Unix(101, 0))

	if len(first.got) != 3 {
		t.Errorf("first observer saw %d messages, want 3", len(first.got))
	}
	if len(second.got) != 2 {
		t.Errorf("second observer saw %v, want relay and other only", second.got)
	}
	if first.values[0] != 15 || first.values[2] != 0 {
		t.Errorf("parsed payloads = %v", first.values)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	m.SetWork(false)
	m.SetServer("mqtt.example.org", 8883)
	m.SetAccess("dev", "p;w")

	b := settings.New(0)
	m.WriteSettings(b)

	r, _, _, _ := newTestManager(t)
	r.ReadSettings(settings.Parse(b.Bytes()))
	server, port := r.Server()
	user, pass := r.Access()
	if r.Work() || server != "mqtt.example.org" || port != 8883 || user != "dev" || pass != "p;w" {
		t.Errorf("restored %v %q %d %q %q", r.Work(), server, port, user, pass)
	}
}

func TestSetServer_Clipped(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	m.SetServer(string(long), 1)
	if s, _ := m.Server(); len(s) != MaxServerLen {
		t.Errorf("server length = %d, want %d", len(s), MaxServerLen)
	}
}
