package http

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driving"
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
	logger     zerolog.Logger

	// Services
	authFlow  driving.AuthFlowService
	dashboard driving.DashboardService

	// Infrastructure
	sessions driven.SessionStore
	cookies  *CookieManager
	store    Pinger // session store health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authFlow driving.AuthFlowService,
	dashboard driving.DashboardService,
	sessions driven.SessionStore,
	cookies *CookieManager,
	store Pinger, // can be nil
	logger zerolog.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		version:   cfg.Version,
		logger:    logger,
		authFlow:  authFlow,
		dashboard: dashboard,
		sessions:  sessions,
		cookies:   cookies,
		store:     store,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.buildHandler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// buildHandler configures all routes and wraps them in the outer
// middleware chain.
func (s *Server) buildHandler() http.Handler {
	sessionMW := NewSessionMiddleware(s.sessions, s.cookies, s.logger)

	// Health endpoints (no session)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Login flow pages (session, no auth)
	s.router.Handle("GET /{$}",
		sessionMW.EnsureSession(http.HandlerFunc(s.handleIndex)))
	s.router.Handle("GET /auth",
		sessionMW.EnsureSession(http.HandlerFunc(s.handleAuth)))
	s.router.Handle("GET /callback",
		sessionMW.EnsureSession(http.HandlerFunc(s.handleCallback)))
	s.router.Handle("GET /logout",
		sessionMW.EnsureSession(http.HandlerFunc(s.handleLogout)))

	// Gated pages
	s.router.Handle("GET /dashboard",
		sessionMW.EnsureSession(
			sessionMW.RequireAuthPage(http.HandlerFunc(s.handleDashboard))))

	// Session introspection (session, no auth)
	s.router.Handle("GET /api/session",
		sessionMW.EnsureSession(http.HandlerFunc(s.handleGetSession)))

	// Dashboard API (authenticated)
	s.router.Handle("GET /api/hubs/{hubId}",
		sessionMW.EnsureSession(
			sessionMW.RequireAuth(http.HandlerFunc(s.handleGetHub))))
	s.router.Handle("GET /api/hubs/{hubId}/matches",
		sessionMW.EnsureSession(
			sessionMW.RequireAuth(http.HandlerFunc(s.handleListHubMatches))))
	s.router.Handle("GET /api/hubs/{hubId}/matches/{matchId}",
		sessionMW.EnsureSession(
			sessionMW.RequireAuth(http.HandlerFunc(s.handleGetHubMatch))))
	s.router.Handle("GET /api/championships/{championshipId}",
		sessionMW.EnsureSession(
			sessionMW.RequireAuth(http.HandlerFunc(s.handleGetChampionship))))
	s.router.Handle("POST /api/championships/rehost",
		sessionMW.EnsureSession(
			sessionMW.RequireAuth(http.HandlerFunc(s.handleRehost))))
	s.router.Handle("POST /api/championships/cancel",
		sessionMW.EnsureSession(
			sessionMW.RequireAuth(http.HandlerFunc(s.handleCancel))))

	// Outer chain: recovery first, then logging and security headers.
	var handler http.Handler = s.router
	handler = NewSecurityHeadersMiddleware().Handler(handler)
	handler = NewLoggingMiddleware(s.logger).Handler(handler)
	handler = NewRecoveryMiddleware(s.logger).Handler(handler)
	return handler
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	<-stop
	s.logger.Info().Msg("shutting down server")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
