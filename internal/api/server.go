package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/temptick-core/internal/infrastructure/config"
	"github.com/nerrad567/temptick-core/internal/infrastructure/logging"
	"github.com/nerrad567/temptick-core/internal/system"
)

const (
	// gracefulShutdownTimeout bounds Stop. It runs on the tick loop.
	gracefulShutdownTimeout = 2 * time.Second

	defaultRequestTimeout = 5 * time.Second
	defaultQueueSize      = 16
)

// CloudWebhook accepts virtual port writes pushed by the dashboard. It is
// called on the HTTP goroutine and must be safe for that.
type CloudWebhook interface {
	RemoteWrite(port uint8, value float32) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	System  *system.System
	Cloud   CloudWebhook // optional; the port webhook answers 503 without it
	Device  string
	Version string
}

// Server is the local HTTP UI.
//
// Start, Stop and Tick are called from the tick loop. Handlers run on HTTP
// goroutines and reach the managers only through the request queue.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	system    *system.System
	cloud     CloudWebhook
	device    string
	version   string
	timeout   time.Duration
	startTime time.Time

	queue  chan job
	events *eventLog
	hub    *Hub

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	// done is closed when the server stops; nil before the first Start.
	done chan struct{}

	// ticking guards against re-entry when a job pumps the loop.
	ticking bool
}

// New creates a new API server with the given dependencies and registers
// its event tap with the system. The server is not started until Start()
// is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, system)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.System == nil {
		return nil, fmt.Errorf("system is required")
	}

	timeout := time.Duration(deps.Config.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	queueSize := deps.Config.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger.Component("api"),
		system:    deps.System,
		cloud:     deps.Cloud,
		device:    deps.Device,
		version:   deps.Version,
		timeout:   timeout,
		startTime: time.Now(),
		queue:     make(chan job, queueSize),
		events:    newEventLog(eventLogSize),
	}
	s.hub = NewHub(deps.Config.WebSocket, s.logger)
	s.system.AddEventTap(s.recordEvent)
	return s, nil
}

// Start begins listening for HTTP connections. It is a no-op when already
// serving.
//
// Returns:
//   - error: If the listener cannot be opened (port in use, etc.)
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return nil
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}
	s.server = srv
	s.listener = ln
	s.done = make(chan struct{})

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", ln.Addr().String())
	return nil
}

// Stop closes the listener and every event stream, fails queued requests
// and waits briefly for in-flight handlers. It is a no-op when stopped.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.server
	if srv == nil {
		s.mu.Unlock()
		return
	}
	s.server = nil
	s.listener = nil
	close(s.done)
	s.mu.Unlock()

	s.failQueued()
	s.hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("API server shutdown incomplete, closing", "error", err)
		srv.Close() //nolint:errcheck // Forced close after failed graceful shutdown
	}
	s.logger.Info("API server stopped")
}

// Close stops the server. It never fails.
func (s *Server) Close() error {
	s.Stop()
	return nil
}

// Addr returns the listening address, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if serving, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.Addr() == "" {
		return fmt.Errorf("api server not started")
	}
	return nil
}
