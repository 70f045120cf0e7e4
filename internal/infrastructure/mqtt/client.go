package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/temptick-core/internal/infrastructure/config"
	"github.com/nerrad567/temptick-core/internal/mqttlink"
)

const (
	// maxPayloadSize bounds a single publish. Device payloads are scalar text.
	maxPayloadSize = 1 << 10

	// inboundQueueSize bounds messages waiting for the tick loop.
	inboundQueueSize = 64
)

// Logger interface for optional logging support.
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

// Client implements mqttlink.Transport over paho.mqtt.golang.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Inbound messages are delivered on a bounded channel.
type Client struct {
	cfg     config.MQTTConfig
	timeout time.Duration

	mu        sync.RWMutex
	client    pahomqtt.Client
	connected bool

	inbound chan mqttlink.Message
	logger  Logger

	// newClient is replaced in tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
}

// New creates a disconnected client. A zero timeout uses the config value,
// then defaultConnectTimeout.
func New(cfg config.MQTTConfig) *Client {
	timeout := time.Duration(cfg.ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return &Client{
		cfg:       cfg,
		timeout:   timeout,
		inbound:   make(chan mqttlink.Message, inboundQueueSize),
		logger:    noopLogger{},
		newClient: pahomqtt.NewClient,
	}
}

// SetLogger sets the logger.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) log() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// Connect replaces any existing connection with a new one to the broker
// described by creds. It blocks up to the connect timeout.
//
// Parameters:
//   - creds: Server, port and credentials from device settings
//
// Returns:
//   - error: ErrNoServer, or ErrConnectionFailed wrapping the cause
func (c *Client) Connect(creds mqttlink.Credentials) error {
	if creds.Server == "" {
		return ErrNoServer
	}
	c.Disconnect()

	opts := buildClientOptions(c.cfg, creds, c.timeout)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	client := c.newClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.mu.Lock()
	c.client = client
	c.connected = true
	c.mu.Unlock()

	if c.cfg.Status.Enabled {
		client.Publish(c.cfg.Status.Topic, byte(c.cfg.QoS), true, statusPayload(c.cfg.ClientID, "online", ""))
	}
	c.log().Info("mqtt broker connected", "broker", brokerURL(creds, c.cfg.TLS))
	return nil
}

func (c *Client) handleConnectionLost(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.log().Warn("mqtt connection lost", "error", err)
}

// Connected reports whether the broker connection is up.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// Publish starts a non-retained publish and returns its token without
// waiting.
//
// Parameters:
//   - topic: Event code used as the topic
//   - payload: Scalar text
//
// Returns:
//   - mqttlink.Delivery: The paho token; Done closes on completion
//   - error: ErrInvalidTopic, ErrPayloadTooLarge or ErrNotConnected
func (c *Client) Publish(topic string, payload []byte) (mqttlink.Delivery, error) {
	if topic == "" {
		return nil, ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	if !c.Connected() {
		return nil, ErrNotConnected
	}

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	return client.Publish(topic, byte(c.cfg.QoS), false, payload), nil
}

// Subscribe subscribes to topic, routing messages to Inbound.
//
// Returns:
//   - error: ErrInvalidTopic, ErrNotConnected or ErrSubscribeFailed
func (c *Client) Subscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.Connected() {
		return ErrNotConnected
	}

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	token := client.Subscribe(topic, byte(c.cfg.QoS), c.handleMessage)
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultSubscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// handleMessage runs on a paho goroutine.
func (c *Client) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	if c.cfg.Status.Enabled && msg.Topic() == c.cfg.Status.Topic {
		return
	}
	m := mqttlink.Message{
		Topic:   msg.Topic(),
		Payload: append([]byte(nil), msg.Payload()...),
	}
	select {
	case c.inbound <- m:
	default:
		c.log().Warn("mqtt inbound queue full, message dropped", "topic", m.Topic)
	}
}

// Inbound returns the queue of received messages.
func (c *Client) Inbound() <-chan mqttlink.Message { return c.inbound }

// Disconnect publishes the graceful offline status and closes the
// connection. It is a no-op when not connected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	client := c.client
	wasConnected := c.connected
	c.client = nil
	c.connected = false
	c.mu.Unlock()

	if client == nil {
		return
	}
	if wasConnected && client.IsConnected() && c.cfg.Status.Enabled {
		token := client.Publish(c.cfg.Status.Topic, byte(c.cfg.QoS), true,
			statusPayload(c.cfg.ClientID, "offline", "graceful_shutdown"))
		token.WaitTimeout(time.Second)
	}
	client.Disconnect(defaultDisconnectQuiesce)
	c.log().Debug("mqtt disconnected")
}

// Close disconnects. It never fails.
func (c *Client) Close() error {
	c.Disconnect()
	return nil
}

// HealthCheck reports ErrNotConnected when the link is down.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: nil if connected
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.Connected() {
		return ErrNotConnected
	}
	return nil
}
