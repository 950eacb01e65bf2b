package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/audit"
	"github.com/nerrad567/alpha2-bridge/internal/command"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/config"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/database"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Server    config.ServerConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Store     *state.Store
	Processor *command.Processor
	Audit     audit.Repository // Optional; /api/v1/audit answers 503 without it
	DB        *database.DB     // Optional; reported by /api/v1/health
	MQTT      *mqtt.Client     // Optional; reported by /api/v1/health
	Hub       *Hub             // If set, the server uses this hub instead of creating its own
	Version   string
}

// Server is the HTTP server for the mock controller.
//
// It serves the controller's XML protocol under /data and the JSON
// inspection endpoints and WebSocket hub under /api/v1.
type Server struct {
	cfg       config.ServerConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	store     *state.Store
	processor *command.Processor
	auditRepo audit.Repository
	db        *database.DB
	mqtt      *mqtt.Client
	version   string
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, store, processor) plus optional ones
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if deps.Processor == nil {
		return nil, fmt.Errorf("command processor is required")
	}

	s := &Server{
		cfg:       deps.Server,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		store:     deps.Store,
		processor: deps.Processor,
		auditRepo: deps.Audit,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		version:   deps.Version,
		hub:       deps.Hub,
	}
	if s.wsCfg.PingInterval <= 0 {
		s.wsCfg.PingInterval = 30
	}
	if s.wsCfg.PongTimeout <= 0 {
		s.wsCfg.PongTimeout = 10
	}
	if s.wsCfg.MaxMessageSize <= 0 {
		s.wsCfg.MaxMessageSize = 8192
	}
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, deps.Logger)
	}

	return s, nil
}

// Hub returns the WebSocket hub used by the server.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the fully wired router. Useful for httptest.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the hub; not used for listener lifetime
//
// Returns:
//   - error: Always nil; listener errors are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
