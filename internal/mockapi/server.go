// Package mockapi serves the graph API: the application list and one graph
// document per application. It stands in for the real backend during local
// development and is what the remote package is tested against.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// Server holds the catalog and serving options.
type Server struct {
	catalog *Catalog
	latency time.Duration
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLatency delays every response, mimicking a slow backend.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		s.latency = d
	}
}

// New creates a server for catalog. A nil catalog selects DefaultCatalog.
func New(catalog *Catalog, logger *slog.Logger, opts ...Option) *Server {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{catalog: catalog, logger: logger.With("component", "mockapi")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Route("/api/apps", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Get("/", s.listApps)
		r.Get("/{appId}/graph", s.getGraph)
	})
}

// Handler returns a standalone router serving only the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	s.Mount(r)
	return r
}

func (s *Server) listApps(w http.ResponseWriter, r *http.Request) {
	if !s.wait(r) {
		return
	}
	s.logger.Debug("Application list requested.", "remote_addr", r.RemoteAddr)
	s.write(w, s.catalog.Apps)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	if !s.wait(r) {
		return
	}
	appID := graph.ApplicationID(chi.URLParam(r, "appId"))
	doc := s.catalog.Graph(appID)
	s.logger.Debug("Graph requested.", "app_id", appID, "nodes", len(doc.Nodes))
	s.write(w, doc)
}

func (s *Server) wait(r *http.Request) bool {
	if s.latency <= 0 {
		return true
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-r.Context().Done():
		return false
	}
}

func (s *Server) write(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response.", "error", err)
	}
}
