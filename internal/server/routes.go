package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/akshayasree99/healthx-signal/internal/logging"
	"github.com/akshayasree99/healthx-signal/internal/signaling"
)

// newUpgrader configures the websocket upgrader for the allowed origins.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
		CheckOrigin:     originChecker(allowedOrigins),
	}
}

// originChecker accepts the listed origins. "*" accepts everything, and a
// request without an Origin header (a non-browser client) is always
// accepted. With no origins configured it returns nil, which makes gorilla
// fall back to its same-host check.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimSuffix(origin, "/"))] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("/ws", s.serveWs)

	return requestLogger(s.log)(tracer(s.serviceName)(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling relay is healthy."))
}

// handleRooms reports the live rooms and their participants.
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.hub.Rooms(r.Context())
	if err != nil {
		s.log.Warn("rooms snapshot failed", logging.Err(err))
		http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rooms); err != nil {
		s.log.Debug("write rooms response", logging.Err(err))
	}
}

// serveWs upgrades the request and hands the connection to the hub.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error response.
		s.log.Warn("websocket upgrade failed", logging.Remote(r.RemoteAddr), logging.Err(err))
		return
	}

	client := signaling.NewConnection(s.hub, conn)
	if err := s.hub.Register(client); err != nil {
		s.log.Warn("rejecting connection", logging.Remote(r.RemoteAddr), logging.Err(err))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay shutting down"))
		conn.Close()
		return
	}

	// The pumps own the connection from here on.
	go client.WritePump()
	go client.ReadPump()
}
