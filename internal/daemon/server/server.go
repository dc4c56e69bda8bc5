// Package server provides the HTTP API of the br0wse daemon over a unix socket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/grovetools/br0wse/internal/daemon/engine"
	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/pkg/models"
)

// Server manages the daemon's HTTP server over a Unix socket.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	session       *engine.Session
	hub           *refresh.Hub
	runningConfig *models.RunningConfig
	startedAt     time.Time
}

// New creates a new Server that reads from session and streams the
// refresh signals published on hub.
func New(session *engine.Session, hub *refresh.Hub, logger *logrus.Entry) *Server {
	return &Server{
		logger:    logger,
		session:   session,
		hub:       hub,
		startedAt: time.Now(),
	}
}

// SetRunningConfig sets the configuration reported by /api/config.
func (s *Server) SetRunningConfig(cfg *models.RunningConfig) {
	s.runningConfig = cfg
}

// Handler returns the daemon's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/state", s.handleGetState)
	mux.HandleFunc("/api/stores/", s.handleGetStore)
	mux.HandleFunc("/api/config", s.handleGetConfig)
	mux.HandleFunc("/api/stream", s.handleStream)
	return otelhttp.NewHandler(mux, "br0wsed")
}

// ListenAndServe starts the daemon on the given unix socket path.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{
		Handler: h2c.NewHandler(s.Handler(), &http2.Server{}),
	}

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status: "ok",
		PID:    os.Getpid(),
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	}
	if s.session != nil {
		resp.SessionID = s.session.ID
	}
	writeJSON(w, resp)
}

// handleGetState returns the complete session state as JSON.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		http.Error(w, "session not initialized", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.session.State())
}

// handleGetStore returns one store snapshot: /api/stores/{name}.
func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		http.Error(w, "session not initialized", http.StatusServiceUnavailable)
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/stores/"), "/")
	st := s.session.Store(name)
	if st == nil {
		http.Error(w, fmt.Sprintf("unknown store %q", name), http.StatusNotFound)
		return
	}
	writeJSON(w, engine.ToModel(st.Snapshot()))
}

// handleGetConfig returns the running configuration as JSON.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.runningConfig)
}

// handleStream provides Server-Sent Events for store changes. Each refresh
// signal for a store whose revision moved produces one event carrying the
// snapshot and the records added since the client's previous event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.session == nil || s.hub == nil {
		http.Error(w, "session not initialized", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe before reading the initial state so no change is missed.
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE client connected")

	state := s.session.State()
	seen := make(map[string]uint64, len(state.Stores))
	for name, snap := range state.Stores {
		seen[name] = snap.Revision
	}
	if !s.writeEvent(w, flusher, models.StreamEvent{Type: models.EventInitial, State: &state}) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			ev, send := s.eventFor(sig, seen)
			if !send {
				continue
			}
			if !s.writeEvent(w, flusher, ev) {
				return
			}
		}
	}
}

// eventFor converts a refresh signal into a stream event. seen tracks the
// last revision sent per store and is updated.
func (s *Server) eventFor(sig refresh.Signal, seen map[string]uint64) (models.StreamEvent, bool) {
	switch sig.Kind {
	case refresh.KindConfigReload:
		return models.StreamEvent{Type: models.EventConfigReload, File: sig.File}, true
	case refresh.KindDirty:
		st := s.session.Store(sig.Source)
		if st == nil || !st.Changed(seen[sig.Source]) {
			return models.StreamEvent{}, false
		}
		snap := engine.ToModel(st.Snapshot())
		ev := models.StreamEvent{
			Type:  models.EventStore,
			Store: &snap,
			New:   snap.Since(seen[sig.Source]),
		}
		seen[sig.Source] = snap.Revision
		return ev, true
	}
	return models.StreamEvent{}, false
}

func (s *Server) writeEvent(w http.ResponseWriter, flusher http.Flusher, ev models.StreamEvent) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal event")
		return true
	}
	// SSE format: "data: {json}\n\n"
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
