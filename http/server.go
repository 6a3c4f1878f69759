// Package http serves invocations over HTTP and WebSocket.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mlinfer/invocation"
	"mlinfer/logger"
)

// Server serves invocations over HTTP and, when enabled, WebSocket.
type Server struct {
	server *http.Server
	config ServerConfig
}

// ServerConfig holds the listener and host options.
type ServerConfig struct {
	Port            int
	Timeout         time.Duration
	MaxBodyBytes    int64
	EnableWebSocket bool
	EnableMetrics   bool
}

// DefaultServerConfig mirrors the defaults of config.New.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		Timeout:         30 * time.Second,
		MaxBodyBytes:    1 << 20,
		EnableWebSocket: true,
		EnableMetrics:   true,
	}
}

// NewServer creates a server that hands every invocation to handler.
func NewServer(config ServerConfig, handler invocation.Handler) *Server {
	mux := http.NewServeMux()
	RegisterHandlers(mux, handler, config)

	chain := Chain(
		RecoveryMiddleware, // outermost, catches panics
		LoggerMiddleware,
		RequestSizeMiddleware(config.MaxBodyBytes),
	)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      chain(mux),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
	}
}

// Start blocks serving until Stop.
func (s *Server) Start() error {
	logger.Infof("starting HTTP server on %s", s.server.Addr)
	if s.config.EnableWebSocket {
		logger.Infof("websocket endpoint: ws://localhost%s/ws", s.server.Addr)
	}

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Infof("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
