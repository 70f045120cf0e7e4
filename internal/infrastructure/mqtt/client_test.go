package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/temptick-core/internal/infrastructure/config"
	"github.com/nerrad567/temptick-core/internal/mqttlink"
)

// ─── Mock Dependencies ──────────────────────────────────────────────

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	retained bool
	payload  string
}

type fakePaho struct {
	mu         sync.Mutex
	opts       *pahomqtt.ClientOptions
	connectErr error
	connected  bool
	published  []published
	handlers   map[string]pahomqtt.MessageHandler
	disconnect int
}

func (f *fakePaho) IsConnected() bool      { f.mu.Lock(); defer f.mu.Unlock(); return f.connected }
func (f *fakePaho) IsConnectionOpen() bool { return f.IsConnected() }

func (f *fakePaho) Connect() pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr == nil {
		f.connected = true
	}
	return newToken(f.connectErr)
}

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnect++
}

func (f *fakePaho) Publish(topic string, _ byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body string
	switch p := payload.(type) {
	case string:
		body = p
	case []byte:
		body = string(p)
	}
	f.published = append(f.published, published{topic, retained, body})
	return newToken(nil)
}

func (f *fakePaho) Subscribe(topic string, _ byte, cb pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[string]pahomqtt.MessageHandler)
	}
	f.handlers[topic] = cb
	return newToken(nil)
}

func (f *fakePaho) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return newToken(nil)
}
func (f *fakePaho) Unsubscribe(...string) pahomqtt.Token          { return newToken(nil) }
func (f *fakePaho) AddRoute(string, pahomqtt.MessageHandler)      {}
func (f *fakePaho) OptionsReader() pahomqtt.ClientOptionsReader { return pahomqtt.NewOptionsReader(f.opts) }

// deliver simulates the broker pushing a message to the subscription.
func (f *fakePaho) deliver(sub, topic, payload string) {
	f.mu.Lock()
	h := f.handlers[sub]
	f.mu.Unlock()
	h(f, &fakeMessage{topic: topic, payload: []byte(payload)})
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		ClientID:       "temptick-test",
		QoS:            1,
		ConnectTimeout: 1,
		Status:         config.StatusConfig{Enabled: true, Topic: "/system/status"},
	}
}

func newTestClient(t *testing.T, cfg config.MQTTConfig) (*Client, *fakePaho) {
	t.Helper()
	fake := &fakePaho{}
	c := New(cfg)
	c.newClient = func(opts *pahomqtt.ClientOptions) pahomqtt.Client {
		fake.opts = opts
		return fake
	}
	return c, fake
}

var testCreds = mqttlink.Credentials{Server: "broker.local", Port: 1884, Username: "dev", Password: "secret"}

// ─── Connection ─────────────────────────────────────────────────────

func TestConnect(t *testing.T) {
	c, fake := newTestClient(t, testConfig())

	if err := c.Connect(testCreds); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !c.Connected() {
		t.Error("Connected() = false after Connect")
	}

	opts := fake.opts
	if got := opts.Servers[0].String(); got != "tcp://broker.local:1884" {
		t.Errorf("broker = %q", got)
	}
	if opts.Username != "dev" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if opts.AutoReconnect || opts.ConnectRetry {
		t.Error("paho reconnect must stay disabled")
	}
	if !opts.WillEnabled || opts.WillTopic != "/system/status" || !opts.WillRetained {
		t.Errorf("last will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}

	if len(fake.published) != 1 || !fake.published[0].retained ||
		!strings.Contains(fake.published[0].payload, `"status":"online"`) {
		t.Errorf("online status not published: %+v", fake.published)
	}
}

func TestConnect_NoServer(t *testing.T) {
	c, _ := newTestClient(t, testConfig())
	if err := c.Connect(mqttlink.Credentials{}); !errors.Is(err, ErrNoServer) {
		t.Errorf("Connect() error = %v, want ErrNoServer", err)
	}
}

func TestConnect_Refused(t *testing.T) {
	c, fake := newTestClient(t, testConfig())
	fake.connectErr = errors.New("connection refused")

	err := c.Connect(testCreds)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if c.Connected() {
		t.Error("Connected() = true after refused connect")
	}
}

func TestConnect_StatusDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Status.Enabled = false
	c, fake := newTestClient(t, cfg)

	if err := c.Connect(mqttlink.Credentials{Server: "broker.local"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if fake.opts.WillEnabled {
		t.Error("last will set with status disabled")
	}
	if len(fake.published) != 0 {
		t.Errorf("published %+v with status disabled", fake.published)
	}
	if got := fake.opts.Servers[0].Port(); got != "1883" {
		t.Errorf("port = %s, want default 1883", got)
	}
}

func TestConnectionLost(t *testing.T) {
	c, fake := newTestClient(t, testConfig())
	if err := c.Connect(testCreds); err != nil {
		t.Fatal(err)
	}

	fake.opts.OnConnectionLost(fake, errors.New("eof"))
	if c.Connected() {
		t.Error("Connected() = true after connection lost")
	}
}

func TestDisconnect_PublishesGracefulOffline(t *testing.T) {
	c, fake := newTestClient(t, testConfig())
	if err := c.Connect(testCreds); err != nil {
		t.Fatal(err)
	}

	c.Disconnect()

	last := fake.published[len(fake.published)-1]
	if !strings.Contains(last.payload, `"reason":"graceful_shutdown"`) {
		t.Errorf("last publish = %+v, want graceful offline", last)
	}
	if fake.disconnect != 1 || c.Connected() {
		t.Errorf("disconnect calls = %d, connected = %v", fake.disconnect, c.Connected())
	}

	// Second disconnect is a no-op.
	c.Disconnect()
	if fake.disconnect != 1 {
		t.Errorf("disconnect calls = %d after second Disconnect", fake.disconnect)
	}
}

// ─── Publish / Subscribe ────────────────────────────────────────────

func TestPublish(t *testing.T) {
	c, fake := newTestClient(t, testConfig())

	if _, err := c.Publish("/a", []byte("1")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() before connect error = %v, want ErrNotConnected", err)
	}
	if err := c.Connect(testCreds); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		wantErr error
	}{
		{"ok", "/sensors/data/ds18b20/temp/T1", []byte("21.50"), nil},
		{"empty topic", "", []byte("1"), ErrInvalidTopic},
		{"oversized", "/a", make([]byte, maxPayloadSize+1), ErrPayloadTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Publish(tt.topic, tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Publish() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			select {
			case <-d.Done():
			default:
				t.Error("delivery not complete")
			}
			last := fake.published[len(fake.published)-1]
			if last.topic != tt.topic || last.retained || last.payload != string(tt.payload) {
				t.Errorf("published %+v", last)
			}
		})
	}
}

func TestSubscribe_RoutesToInbound(t *testing.T) {
	c, fake := newTestClient(t, testConfig())
	if err := c.Subscribe("/#"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() before connect error = %v", err)
	}
	if err := c.Connect(testCreds); err != nil {
		t.Fatal(err)
	}
	if err := c.Subscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(\"\") error = %v", err)
	}
	if err := c.Subscribe("/#"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	fake.deliver("/#", "/relay/settings/relay_flag", "1")
	fake.deliver("/#", "/system/status", `{"status":"online"}`)

	select {
	case m := <-c.Inbound():
		if m.Topic != "/relay/settings/relay_flag" || string(m.Payload) != "1" {
			t.Errorf("inbound = %+v", m)
		}
	default:
		t.Fatal("no inbound message")
	}
	select {
	case m := <-c.Inbound():
		t.Errorf("own status message delivered: %+v", m)
	default:
	}
}

func TestSubscribe_QueueFullDrops(t *testing.T) {
	c, fake := newTestClient(t, testConfig())
	if err := c.Connect(testCreds); err != nil {
		t.Fatal(err)
	}
	if err := c.Subscribe("/#"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < inboundQueueSize+5; i++ {
		fake.deliver("/#", "/x", "1")
	}
	if got := len(c.Inbound()); got != inboundQueueSize {
		t.Errorf("queued = %d, want %d", got, inboundQueueSize)
	}
}

func TestHealthCheck(t *testing.T) {
	c, _ := newTestClient(t, testConfig())

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() disconnected error = %v", err)
	}
	if err := c.Connect(testCreds); err != nil {
		t.Fatal(err)
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() with cancelled context succeeded")
	}
}

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		creds mqttlink.Credentials
		tls   bool
		want  string
	}{
		{mqttlink.Credentials{Server: "h", Port: 1883}, false, "tcp://h:1883"},
		{mqttlink.Credentials{Server: "h", Port: 8883}, true, "ssl://h:8883"},
		{mqttlink.Credentials{Server: "h"}, false, "tcp://h:1883"},
		{mqttlink.Credentials{Server: "fe80::1", Port: 1883}, false, "tcp://[fe80::1]:1883"},
	}
	for _, tt := range tests {
		if got := brokerURL(tt.creds, tt.tls); got != tt.want {
			t.Errorf("brokerURL(%+v, %v) = %q, want %q", tt.creds, tt.tls, got, tt.want)
		}
	}
}

// Compile-time check that the client satisfies the manager's transport.
var _ mqttlink.Transport = (*Client)(nil)
