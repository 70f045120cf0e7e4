package cloud

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

func (d *fakeDelivery) Done() <-chan struct{} { return d.done }
func (d *fakeDelivery) Error() error          { return d.err }

type portWrite struct {
	port  uint8
	value scalar.Value
}

type fakeTransport struct {
	connected   bool
	connects    []string
	writes      []portWrite
	deliveries  []*fakeDelivery
	disconnects int
	handler     WriteHandler
}

func (f *fakeTransport) Connect(auth string) error {
	f.connects = append(f.connects, auth)
	f.connected = true
	return nil
}
func (f *fakeTransport) Connected() bool { return f.connected }
func (f *fakeTransport) VirtualWrite(port uint8, v scalar.Value) (Delivery, error) {
	f.writes = append(f.writes, portWrite{port, v})
	d := &fakeDelivery{done: make(chan struct{})}
	f.deliveries = append(f.deliveries, d)
	return d, nil
}
func (f *fakeTransport) Disconnect() {
	f.disconnects++
	f.connected = false
}
func (f *fakeTransport) SetWriteHandler(h WriteHandler) { f.handler = h }

type fakeNetwork struct{ up bool }

func (n *fakeNetwork) Connected() bool { return n.up }

type fakeSystem struct{ sent bool }

func (s *fakeSystem) SetCloudSent(v bool) { s.sent = v }

type recorder struct {
	codes  []string
	values []float32
}

func (r *recorder) HandleEvent(code string, v scalar.Value) bool {
	r.codes = append(r.codes, code)
	r.values = append(r.values, v.Float32())
	return true
}

func newTestManager(t *testing.T) (*Manager, *fakeTransport, *fakeSystem) {
	t.Helper()
	tr := &fakeTransport{}
	sys := &fakeSystem{}
	m := New(tr, &fakeNetwork{up: true})
	m.SetSystem(sys)
	m.SetAuth("token")
	return m, tr, sys
}

func addLink(t *testing.T, m *Manager, port uint8, code string) {
	t.Helper()
	if !m.AddLink() {
		t.Fatal("AddLink() = false")
	}
	i := m.LinkCount() - 1
	m.SetLinkPort(i, port)
	m.SetLinkCode(i, code)
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestNew_RegistersWriteHandler(t *testing.T) {
	_, tr, _ := newTestManager(t)
	if tr.handler == nil {
		t.Error("write handler not registered with transport")
	}
}

func TestAddLink_PortDefaultsToIndexAndBounded(t *testing.T) {
	m, _, _ := newTestManager(t)
	for i := 0; i < MaxLinks; i++ {
		if !m.AddLink() {
			t.Fatalf("AddLink() #%d = false", i)
		}
	}
	if m.AddLink() {
		t.Error("AddLink() beyond capacity = true")
	}
	if l, _ := m.Link(7); l.Port != 7 {
		t.Errorf("Link(7).Port = %d, want 7", l.Port)
	}
}

func TestHandleEvent_WritesLinkedCodesOnly(t *testing.T) {
	m, tr, sys := newTestManager(t)
	addLink(t, m, 5, "/sensors/data/ds18b20/temp/T1")
	m.Tick(time.Unix(100, 0))

	if m.HandleEvent("/sensors/data/ds18b20/temp/T2", scalar.Float(1)) {
		t.Error("unlinked code claimed")
	}
	if !m.HandleEvent("/sensors/data/ds18b20/temp/T1", scalar.Float(21.5)) {
		t.Fatal("linked code not claimed")
	}
	if len(tr.writes) != 1 || tr.writes[0].port != 5 || tr.writes[0].value.Float32() != 21.5 {
		t.Errorf("writes = %+v", tr.writes)
	}
	if sys.sent {
		t.Error("cloud-sent raised before write confirmed")
	}

	close(tr.deliveries[0].done)
	m.Tick(time.Unix(101, 0))
	if !sys.sent {
		t.Error("confirmed write did not raise cloud-sent")
	}
}

func TestHandleEvent_FailedWriteLeavesFlag(t *testing.T) {
	m, tr, sys := newTestManager(t)
	addLink(t, m, 1, "/relay/data/relay_flag")
	m.Tick(time.Unix(100, 0))
	m.HandleEvent("/relay/data/relay_flag", scalar.Bool(true))

	tr.deliveries[0].err = errors.New("401")
	close(tr.deliveries[0].done)
	m.Tick(time.Unix(101, 0))
	if sys.sent {
		t.Error("failed write raised cloud-sent")
	}
}

func TestTick_RemoteWriteResolvedToLink(t *testing.T) {
	m, tr, _ := newTestManager(t)
	rec := &recorder{}
	m.AddObserver(rec)
	addLink(t, m, 3, "/relay/settings/relay_flag")
	m.Tick(time.Unix(100, 0))

	tr.handler(3, 1)
	tr.handler(9, 4) // unlinked port
	if len(rec.codes) != 0 {
		t.Fatal("remote write applied outside Tick")
	}
	m.Tick(time.Unix(101, 0))

	if len(rec.codes) != 1 || rec.codes[0] != "/relay/settings/relay_flag" || rec.values[0] != 1 {
		t.Errorf("notified %v %v", rec.codes, rec.values)
	}
}

func TestTick_GatedAndCooldown(t *testing.T) {
	tr := &fakeTransport{}
	net := &fakeNetwork{}
	m := New(tr, net)
	m.Tick(time.Unix(0, 0))
	if len(tr.connects) != 0 {
		t.Error("connected without auth or network")
	}

	m.SetAuth("abc")
	net.up = true
	m.Tick(time.Unix(10, 0))
	if len(tr.connects) != 1 || tr.connects[0] != "abc" {
		t.Fatalf("connects = %v", tr.connects)
	}
	tr.connected = false
	m.Tick(time.Unix(20, 0))
	if len(tr.connects) != 1 {
		t.Error("reconnected inside cooldown")
	}
	m.Tick(time.Unix(30, 0))
	if len(tr.connects) != 2 {
		t.Error("did not reconnect after cooldown")
	}
}

func TestTick_ResetWithoutSessionSkipsDisconnect(t *testing.T) {
	tr := &fakeTransport{}
	net := &fakeNetwork{}
	m := New(tr, net)
	m.SetAuth("abc")
	m.Tick(time.Unix(0, 0))
	if tr.disconnects != 0 {
		t.Errorf("disconnects = %d before any session, want 0", tr.disconnects)
	}

	net.up = true
	m.Tick(time.Unix(1, 0))
	m.SetAuth("def")
	m.Tick(time.Unix(2, 0))
	if tr.disconnects != 1 {
		t.Errorf("disconnects = %d after a session, want 1", tr.disconnects)
	}
	if len(tr.connects) != 2 || tr.connects[1] != "def" {
		t.Errorf("connects = %v", tr.connects)
	}
}

func TestRenameAndDeleteByCode(t *testing.T) {
	m, _, _ := newTestManager(t)
	addLink(t, m, 0, "/sensors/data/ds18b20/temp/Tn")
	addLink(t, m, 1, "/relay/data/relay_flag")

	if !m.RenameCode("/sensors/data/ds18b20/temp/Tn", "/sensors/data/ds18b20/temp/T1") {
		t.Fatal("RenameCode() = false")
	}
	if m.LinkIndex("/sensors/data/ds18b20/temp/T1") != 0 {
		t.Error("renamed link not found")
	}
	if m.RenameCode("/missing", "/x") {
		t.Error("RenameCode(missing) = true")
	}
	if !m.DeleteLinkByCode("/relay/data/relay_flag") || m.LinkCount() != 1 {
		t.Error("DeleteLinkByCode failed")
	}
	if m.DeleteLinkByCode("/missing") {
		t.Error("DeleteLinkByCode(missing) = true")
	}
}

func TestSettings_ReindexAfterDelete(t *testing.T) {
	m, _, _ := newTestManager(t)
	addLink(t, m, 10, "/a")
	addLink(t, m, 11, "/b")
	addLink(t, m, 12, "/c")
	m.DeleteLink(0)

	b := settings.New(0)
	m.WriteSettings(b)

	r, _, _ := newTestManager(t)
	r.ReadSettings(settings.Parse(b.Bytes()))
	if r.LinkCount() != 2 || r.Auth() != "token" {
		t.Fatalf("restored %d links, auth %q", r.LinkCount(), r.Auth())
	}
	if l, _ := r.Link(1); l.Port != 12 || l.Code != "/c" {
		t.Errorf("Link(1) = %+v", l)
	}
}
