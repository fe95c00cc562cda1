// Package server implements the splitkit HTTP API.
//
// The API exposes the splitting pipeline over JSON: POST a value graph plus
// options, get back the manifest. Completed runs are archived in a
// manifest.Store and can be fetched again by run ID.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/splitkit/splitkit/pkg/manifest"
	"github.com/splitkit/splitkit/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// maxBodyBytes bounds request body size (value graphs can be large, but
	// not unbounded).
	maxBodyBytes = 32 << 20

	// shutdownTimeout is how long in-flight requests get to finish.
	shutdownTimeout = 10 * time.Second

	// defaultListLimit is the run-list page size when none is requested.
	defaultListLimit = 20

	// maxListLimit caps the run-list page size.
	maxListLimit = 200
)

// =============================================================================
// Server
// =============================================================================

// Server wires the pipeline runner and the run archive into an HTTP API.
type Server struct {
	Runner *pipeline.Runner
	Store  manifest.Store
	Logger *log.Logger
}

// New creates a server. A nil store disables run archiving endpoints' state
// (an in-memory store is used); a nil logger discards log output.
func New(runner *pipeline.Runner, store manifest.Store, logger *log.Logger) *Server {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if store == nil {
		store = manifest.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Runner: runner,
		Store:  store,
		Logger: logger,
	}
}

// Router builds the chi router with all routes and middleware registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/split", s.handleSplit)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// logRequests logs one line per request with the structured logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
