package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driving"
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
	logger     *slog.Logger

	// Services
	searchService driving.SearchService

	// Infrastructure
	cache       driven.ResultCache
	popularity  driven.PopularityTracker
	db          Pinger // PostgreSQL health check (optional)
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// JWTSecret signs and verifies bearer tokens
	JWTSecret string

	// AdminKeyHash is the bcrypt hash of the admin API key; empty
	// disables API-key access
	AdminKeyHash string

	Logger *slog.Logger
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
	searchService driving.SearchService,
	cache driven.ResultCache,
	popularity driven.PopularityTracker, // can be nil
	db Pinger, // can be nil
	redisClient Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		logger:        logger,
		searchService: searchService,
		cache:         cache,
		popularity:    popularity,
		db:            db,
		redisClient:   redisClient,
	}

	auth := NewAuthMiddleware([]byte(cfg.JWTSecret), []byte(cfg.AdminKeyHash))
	logging := NewLoggingMiddleware(logger)
	recovery := NewRecoveryMiddleware(logger)

	s.setupRoutes(auth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      recovery.Handler(logging.Handler(s.router)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(auth *AuthMiddleware) {
	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Search endpoints (authenticated)
	s.router.Handle("POST /api/v1/search",
		auth.Authenticate(http.HandlerFunc(s.handleSearch)))
	s.router.Handle("GET /api/v1/search/popular",
		auth.Authenticate(http.HandlerFunc(s.handlePopularQueries)))

	// Cache administration (admin-only)
	s.router.Handle("DELETE /api/v1/cache/{key}",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleDeleteCacheEntry))))
	s.router.Handle("DELETE /api/v1/cache",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleClearCache))))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
