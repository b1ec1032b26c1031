// Package server exposes the signaling hub over HTTP: the websocket endpoint
// plus health and room introspection routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akshayasree99/healthx-signal/internal/logging"
	"github.com/akshayasree99/healthx-signal/internal/signaling"
)

// Config is the HTTP-facing part of the relay configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	ServiceName    string
}

// Server runs the relay's HTTP listener.
type Server struct {
	log         *slog.Logger
	hub         *signaling.Hub
	upgrader    websocket.Upgrader
	serviceName string
	httpServer  *http.Server
}

// New wires a Server around a running hub.
func New(log *slog.Logger, hub *signaling.Hub, cfg Config) *Server {
	s := &Server{
		log:         log.With(logging.Component("server")),
		hub:         hub,
		upgrader:    newUpgrader(cfg.AllowedOrigins),
		serviceName: cfg.ServiceName,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for mounting in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("relay listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests. Hijacked websocket connections are not
// tracked by net/http; they close when the hub stops.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down relay server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("relay server shutdown: %w", err)
	}
	return nil
}
