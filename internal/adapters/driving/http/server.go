package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driving"
	"github.com/custodia-labs/foodorder-identity/internal/observability"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	shutdown   time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics

	// Services
	authService     driving.AuthService
	customerService driving.CustomerService

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
	metricsView http.Handler
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            int
	Version         string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Deps are the optional collaborators of the server. Nil fields are skipped.
type Deps struct {
	DB          Pinger
	Redis       Pinger
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	MetricsView http.Handler
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	customerService driving.CustomerService,
	deps Deps,
) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		shutdown:        cfg.ShutdownTimeout,
		logger:          logger,
		metrics:         deps.Metrics,
		authService:     authService,
		customerService: customerService,
		db:              deps.DB,
		redisClient:     deps.Redis,
		metricsView:     deps.MetricsView,
	}

	s.setupRoutes()

	handler := NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger, deps.Metrics).Handler(
			NewCORSMiddleware(cfg.CORSOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService, s.metrics)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.metricsView != nil {
		s.router.Handle("GET /metrics", s.metricsView)
	}

	// Public customer endpoints
	s.router.HandleFunc("POST /api/v1/customer/signup", s.handleSignup)
	s.router.HandleFunc("POST /api/v1/customer/login", s.handleLogin)

	// Logout resolves the token itself so it can report a second logout
	s.router.HandleFunc("POST /api/v1/customer/logout", s.handleLogout)

	// Authenticated customer endpoints
	s.router.Handle("GET /api/v1/customer",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetCustomer)))
	s.router.Handle("PUT /api/v1/customer",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUpdateCustomer)))
	s.router.Handle("PUT /api/v1/customer/password",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleChangePassword)))
}

// Handler returns the full middleware chain, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVE_FAILED").With("addr", s.httpServer.Addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	timeout := s.shutdown
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Stop(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
