// Package server exposes the diagram pipeline over HTTP.
//
// Stateless endpoints read NetBox and render artifacts directly:
//
//	GET  /api/filter-options              sites, locations and racks
//	GET  /api/graph-data?site=&location=&rack=
//	GET  /api/diagram.{svg,png,pdf}?site=&location=&rack=
//
// Session endpoints keep a diagram and its viewport across requests:
//
//	POST   /api/sessions                  create
//	GET    /api/sessions/{id}             state
//	POST   /api/sessions/{id}/load        fetch a selection
//	POST   /api/sessions/{id}/viewport    pan, zoom, fit, reset
//	GET    /api/sessions/{id}/export?format=
//	DELETE /api/sessions/{id}
//
// Errors are JSON objects {"error": message, "code": code}.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/kabelplan/pkg/buildinfo"
	"github.com/matzehuels/kabelplan/pkg/observability"
	"github.com/matzehuels/kabelplan/pkg/pipeline"
	"github.com/matzehuels/kabelplan/pkg/session"
)

// Defaults for [Options].
const (
	DefaultTimeout         = 60 * time.Second
	DefaultCleanupInterval = 5 * time.Minute
	shutdownTimeout        = 10 * time.Second
)

// Options configures a [Server].
type Options struct {
	// Runner executes the pipeline. Its NetBox client may be nil, in which
	// case the NetBox endpoints answer with an error.
	Runner *pipeline.Runner

	// Defaults supplies strategies, tuning and canvas size for requests
	// that do not override them.
	Defaults pipeline.Options

	// Metrics enables GET /metrics and the request histogram.
	Metrics *observability.Prometheus

	Logger     *log.Logger
	Timeout    time.Duration
	SessionTTL time.Duration
}

// Server is the HTTP front end.
type Server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	sessions *session.Registry
	metrics  *observability.Prometheus
	logger   *log.Logger
	timeout  time.Duration
	router   chi.Router
}

// New builds a server and its routes. It fails when the default
// strategies are invalid.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, nil, opts.Logger)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	opts.Defaults.Logger = opts.Logger
	if err := opts.Defaults.ValidateForRender(); err != nil {
		return nil, err
	}
	sopts, err := opts.Defaults.SessionOptions()
	if err != nil {
		return nil, err
	}

	s := &Server{
		runner:   opts.Runner,
		defaults: opts.Defaults,
		sessions: session.NewRegistry(sopts, opts.SessionTTL),
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Current()})
	})
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/filter-options", s.handleFilterOptions)
		r.Get("/graph-data", s.handleGraphData)
		r.Get("/diagram.{format}", s.handleDiagram)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleSessionState)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/load", s.handleLoad)
				r.Post("/viewport", s.handleViewport)
				r.Get("/export", s.handleExport)
			})
		})
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry { return s.sessions }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Idle sessions are evicted in the background.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.sessions.Run(ctx, DefaultCleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
