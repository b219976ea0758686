// Package server owns the HTTP listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matiasleandrokruk/finchat/internal/api"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration. WriteTimeout covers
// a chat request that walks every backend up to its own timeout.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server wraps the HTTP server and the database behind it.
type Server struct {
	config Config
	deps   api.Deps
	http   *http.Server
	logger *zap.Logger
}

// NewServer creates the HTTP server for deps. The server takes ownership of
// deps.DB and closes it on Shutdown.
func NewServer(deps api.Deps, config Config) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}

	return &Server{
		config: config,
		deps:   deps,
		http:   httpServer,
		logger: logger.With(zap.String("component", "server")),
	}
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start(_ context.Context) error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and closes the database connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			return fmt.Errorf("database close error: %w", err)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
