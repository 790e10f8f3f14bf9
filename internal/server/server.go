package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/internal/journal"
	"github.com/me/cannonbot/internal/scheduler"
)

// Version is reported by the health endpoint.
const Version = "0.3.0"

// StateSource publishes scheduler snapshots. *scheduler.Scheduler
// implements it.
type StateSource interface {
	Snapshot() scheduler.Snapshot
}

// Submitter runs a function on the tick goroutine. *scheduler.Loop
// implements it.
type Submitter interface {
	Submit(ctx context.Context, fn func(*scheduler.Scheduler)) error
}

// InputInjector accepts operator gamepad input.
type InputInjector interface {
	Press(id hardware.Button)
	Release(id hardware.Button)
	SetAxis(id hardware.Axis, v float64)
}

// Server is the cannonbot operator API.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	startTime time.Time
	state     StateSource
	loop      Submitter     // optional; enables action cancellation
	journal   journal.Store // optional; enables /events and /runs
	runID     string
	input     InputInjector // optional; enables /input
	sseEvery  time.Duration
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithLoop enables cancelling actions through the tick loop.
func WithLoop(l Submitter) Option {
	return func(s *Server) {
		s.loop = l
	}
}

// WithJournal serves events from st. runID is the default run filter.
func WithJournal(st journal.Store, runID string) Option {
	return func(s *Server) {
		s.journal = st
		s.runID = runID
	}
}

// WithInput enables gamepad injection.
func WithInput(in InputInjector) Option {
	return func(s *Server) {
		s.input = in
	}
}

// WithStreamInterval sets how often the snapshot stream polls for a new tick.
func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		s.sseEvery = d
	}
}

// New creates a new Server with all routes registered.
func New(state StateSource, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		startTime: time.Now(),
		state:     state,
		sseEvery:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Scheduler state
		r.Get("/resources", s.handleListResources)
		r.Route("/actions", func(r chi.Router) {
			r.Get("/", s.handleListActions)
			r.Post("/{handle}/cancel", s.handleCancelAction)
		})

		// Journal
		r.Get("/events", s.handleListEvents)
		r.Get("/runs", s.handleListRuns)

		// Operator input
		r.Route("/input", func(r chi.Router) {
			r.Post("/buttons/{id}", s.handleButton)
			r.Post("/axes/{id}", s.handleAxis)
		})

		// SSE snapshot stream
		r.Get("/sse/snapshot", s.handleSSESnapshot)
	})
}
