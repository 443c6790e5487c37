// Package server implements the REST task API served by `tasktime serve`.
// It speaks the wire format of internal/api over any task store.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/notify"
	"github.com/manav03panchal/tasktime/internal/store"
)

// Notifier delivers task notifications. *notify.Dispatcher satisfies it.
type Notifier interface {
	Send(ctx context.Context, n *notify.Notification) []notify.DispatchResult
}

// Options configure a Server.
type Options struct {
	// Notifier receives status change and assignment notifications. Optional.
	Notifier Notifier
	// Version is reported by /api/health.
	Version string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Server routes task API requests to a store.
type Server struct {
	tasks    store.Store
	notifier Notifier
	router   *mux.Router
	health   *HealthChecker
	metrics  *Metrics
	now      func() time.Time

	// wg tracks notification deliveries still in flight.
	wg sync.WaitGroup
}

// New creates a server over tasks.
func New(tasks store.Store, opts Options) *Server {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		tasks:    tasks,
		notifier: opts.Notifier,
		router:   mux.NewRouter(),
		health:   NewHealthChecker(opts.Version),
		metrics:  NewMetrics(),
		now:      now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(requestID, s.logRequests, recoverPanics)

	r := s.router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/tasks", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/tasks", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", s.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/tasks/{id}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/tasks/{id}/start", s.handleStart).Methods(http.MethodPut)
	r.HandleFunc("/tasks/{id}/stop", s.handleStop).Methods(http.MethodPut)
	r.HandleFunc("/tasks/{id}/assign", s.handleAssign).Methods(http.MethodPut)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "", "method not allowed")
	})
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Health returns the health checker so callers can register checks.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Metrics returns the server counters.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully,
// waiting up to shutdownTimeout for requests and notifications to finish.
func (s *Server) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln, shutdownTimeout)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("task API listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logging.Warn("notifications still pending at shutdown")
	}

	if err != nil {
		return err
	}
	logging.Info("task API stopped")
	return nil
}

// Wait blocks until all in-flight notifications are delivered.
func (s *Server) Wait() {
	s.wg.Wait()
}
