// Package server exposes the routing pipeline over HTTP.
//
// Endpoints:
//
//	GET    /healthz               liveness and version
//	POST   /v1/route              route a JSON scenario, answer with the result
//	POST   /v1/dot                draw a JSON result (?format=dot|svg)
//	GET    /v1/snapshots          list saved snapshots
//	GET    /v1/snapshots/{id}     fetch one snapshot
//	DELETE /v1/snapshots/{id}     delete one snapshot
//	GET    /v1/events             server-sent events, one per routed pass
//
// POST /v1/route?save=<name> also stores the result as a snapshot. Errors are
// JSON objects {"error": ..., "code": ...} with the status picked by
// errors.HTTPStatus.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/r3labs/sse/v2"

	"github.com/matzehuels/linkroute/pkg/pipeline"
	"github.com/matzehuels/linkroute/pkg/store"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 8 << 20

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	// store is optional; without it the snapshot endpoints answer 501.
	store  store.Store
	opts   pipeline.Options
	logger *log.Logger
	router chi.Router
	events *sse.Server

	// MaxBodyBytes caps request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// New builds a server. opts are the fallback router settings applied to
// every request.
func New(runner *pipeline.Runner, st store.Store, opts pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		opts:   opts,
		logger: logger,
		events: newEvents(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/route", s.handleRoute)
		r.Post("/dot", s.handleDOT)
		r.Get("/events", s.handleEvents)
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Get("/{id}", s.handleGetSnapshot)
			r.Delete("/{id}", s.handleDeleteSnapshot)
		})
	})
	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close ends every event subscription.
func (s *Server) Close() {
	s.events.Close()
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	// Event subscriptions never finish on their own.
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
