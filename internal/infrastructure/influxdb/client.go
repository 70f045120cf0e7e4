package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/temptick-core/internal/cloud"
	"github.com/nerrad567/temptick-core/internal/infrastructure/config"
)

// Default timeouts for InfluxDB operations.
const (
	defaultTimeout     = 5 * time.Second
	defaultPingTimeout = 5 * time.Second

	// millisecondsPerSecond converts seconds to milliseconds for the client options.
	millisecondsPerSecond = 1000
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

// Client implements cloud.Transport on InfluxDB v2.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The write handler is called on the RemoteWrite caller's goroutine.
type Client struct {
	cfg     config.CloudConfig
	device  string
	timeout time.Duration

	mu        sync.RWMutex
	client    influxdb2.Client
	writeAPI  api.WriteAPIBlocking
	connected bool
	handler   cloud.WriteHandler
	logger    Logger

	// inflight tracks VirtualWrite goroutines so Disconnect can wait for them.
	inflight sync.WaitGroup
}

// New creates a disconnected client for the dashboard described by cfg.
//
// Parameters:
//   - cfg: Cloud section of the device config
//   - device: Device ID used as the "device" tag on every point
func New(cfg config.CloudConfig, device string) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:     cfg,
		device:  device,
		timeout: timeout,
		logger:  noopLogger{},
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

// Connect opens a session using auth as the API token. Any existing session
// is closed first.
//
// It performs the following setup:
//  1. Creates the client with token authentication
//  2. Verifies connectivity with a ping
//  3. Prepares the blocking write API for the configured org and bucket
//
// Parameters:
//   - auth: The device's cloud auth setting
//
// Returns:
//   - error: ErrNoToken, or ErrConnectionFailed wrapping the cause
func (c *Client) Connect(auth string) error {
	if auth == "" {
		return ErrNoToken
	}
	c.Disconnect()

	// #nosec G115 -- timeout is positive, set in New
	client := influxdb2.NewClientWithOptions(
		c.cfg.URL,
		auth,
		influxdb2.DefaultOptions().
			SetHTTPRequestTimeout(uint(c.timeout.Seconds())).
			SetPrecision(time.Millisecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	c.mu.Lock()
	c.client = client
	c.writeAPI = client.WriteAPIBlocking(c.cfg.Org, c.cfg.Bucket)
	c.connected = true
	c.mu.Unlock()

	c.log().Info("influxdb connected", "url", c.cfg.URL, "bucket", c.cfg.Bucket)
	return nil
}

// Connected returns the current session state.
//
// Note: This reflects the last known state. Use HealthCheck for an active
// ping.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Disconnect waits for in-flight writes and closes the session. It is a
// no-op when not connected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.writeAPI = nil
	c.connected = false
	c.mu.Unlock()

	if client == nil {
		return
	}
	c.inflight.Wait()
	client.Close()
	c.log().Debug("influxdb disconnected")
}

// Close disconnects. It never fails.
func (c *Client) Close() error {
	c.Disconnect()
	return nil
}

// HealthCheck verifies the session with an active ping.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client == nil {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}
	return nil
}

// SetWriteHandler registers the callback RemoteWrite delivers to.
func (c *Client) SetWriteHandler(h cloud.WriteHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// RemoteWrite delivers a value pushed from the dashboard to a virtual port.
//
// Returns:
//   - error: ErrNotConnected without a session, ErrNoHandler before the
//     cloud manager has registered
func (c *Client) RemoteWrite(port uint8, value float32) error {
	c.mu.RLock()
	h, connected := c.handler, c.connected
	c.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}
	if h == nil {
		return ErrNoHandler
	}
	h(port, value)
	return nil
}

var _ cloud.Transport = (*Client)(nil)
