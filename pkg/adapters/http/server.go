// Package http exposes a running tree over HTTP: its snapshot, its
// blackboard, a halt switch, a stream of lifecycle events and Prometheus
// metrics.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/ports"
)

// Server serves one tree at a time.
type Server struct {
	Streams *StreamManager

	mu        sync.RWMutex
	inspector ports.Inspector
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

type Option func(*Server)

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server with no tree attached.
func NewServer(opts ...Option) *Server {
	s := &Server{
		Streams:  NewStreamManager(),
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// Attach sets the tree served by /tree, /blackboard and /halt.
func (s *Server) Attach(insp ports.Inspector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspector = insp
}

func (s *Server) attached() ports.Inspector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inspector
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/tree", s.GetTree)
	r.Get("/blackboard", s.GetBlackboard)
	r.Post("/halt", s.Halt)
	r.Get("/events", s.SubscribeEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "canopy",
		"version": strings.TrimSpace(canopy.Version),
	})
}

// GetTree handles GET /tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	insp := s.attached()
	if insp == nil {
		http.Error(w, "no tree attached", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, insp.Snapshot())
}

// GetBlackboard handles GET /blackboard.
func (s *Server) GetBlackboard(w http.ResponseWriter, r *http.Request) {
	insp := s.attached()
	if insp == nil {
		http.Error(w, "no tree attached", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, insp.Snapshot().Blackboard)
}

// Halt handles POST /halt.
func (s *Server) Halt(w http.ResponseWriter, r *http.Request) {
	insp := s.attached()
	if insp == nil {
		http.Error(w, "no tree attached", http.StatusServiceUnavailable)
		return
	}
	s.logger.Info("halt requested over http", "remote", r.RemoteAddr)
	insp.Halt()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "halted"})
}

// SubscribeEvents handles GET /events (SSE). The optional "type" query
// parameter is a comma-separated list of event types to keep.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var filter []string
	if raw := r.URL.Query().Get("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			filter = append(filter, strings.TrimSpace(t))
		}
	}

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(filter) > 0 && !slices.Contains(filter, string(msg.Type)) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}
