// Package server is the mission persistence service: mission CRUD over JSON,
// the reference data endpoints the composer loads from, and a websocket that
// notifies open views about saves and deletions.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aydocorp/opscomposer/internal/config"
	"github.com/aydocorp/opscomposer/internal/refdata"
	"github.com/aydocorp/opscomposer/internal/storage"
	"github.com/aydocorp/opscomposer/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/aydocorp/opscomposer/internal/server"

// Recorder receives mission activity after it has been stored.
type Recorder interface {
	MissionSaved(ctx context.Context, m core.Mission, created bool)
	MissionDeleted(ctx context.Context, id string)
}

// Server serves the persistence API.
type Server struct {
	backend   storage.Backend
	directory refdata.Directory
	catalog   refdata.Catalog
	cfg       config.ServerConfig
	logger    *slog.Logger
	hub       *Hub
	recorders []Recorder

	requests metric.Int64Counter
	httpSrv  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder adds a mission activity recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Server) {
		if r != nil {
			s.recorders = append(s.recorders, r)
		}
	}
}

// New creates a server. A nil directory or catalog serves empty lists.
func New(backend storage.Backend, dir refdata.Directory, cat refdata.Catalog, cfg config.ServerConfig, opts ...Option) (*Server, error) {
	if dir == nil {
		dir = refdata.StaticDirectory(nil)
	}
	if cat == nil {
		cat = refdata.StaticCatalog(nil)
	}
	s := &Server{
		backend:   backend,
		directory: dir,
		catalog:   cat,
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger)

	var err error
	s.requests, err = otel.Meter(instrumentationName).Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total API requests by route and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}
	return s, nil
}

// Hub returns the notification hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /healthcheck", s.handleHealthcheck)
	s.route(mux, "GET /api/missions", s.handleListMissions)
	s.route(mux, "POST /api/missions", s.handleCreateMission)
	s.route(mux, "GET /api/missions/{id}", s.handleGetMission)
	s.route(mux, "PUT /api/missions/{id}", s.handleUpdateMission)
	s.route(mux, "DELETE /api/missions/{id}", s.handleDeleteMission)
	s.route(mux, "GET /api/users", s.handleUsers)
	s.route(mux, "GET /api/ships", s.handleShips)
	mux.Handle("GET /ws", s.hub)
	return mux
}

// route wraps h with request counting and access logging.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.requests.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("route", pattern),
			attribute.Int("status", rec.status),
		))
		s.logger.Debug("Request served",
			"route", pattern,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Persistence service listening", "addr", ln.Addr().String())
		errCh <- s.httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.hub.Close()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Persistence service stopped")
	return nil
}
