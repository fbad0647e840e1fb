package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tailored-agentic-units/chatgraph/observability"
)

// NewRouter mounts the Submit RPC and the health endpoint. /metrics is served
// from gatherer when it is non-nil.
func NewRouter(submitter Submitter, gatherer prometheus.Gatherer, observer observability.Observer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	path, handler := NewSubmitHandler(submitter, observer)
	r.Handle(path, handler)

	return r
}

// Server serves a handler until its context is cancelled.
type Server struct {
	cfg      Config
	handler  http.Handler
	observer observability.Observer
}

// New creates a Server.
func New(cfg Config, handler http.Handler, observer observability.Observer) *Server {
	return &Server{
		cfg:      cfg,
		handler:  handler,
		observer: observability.OrNoOp(observer),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured timeout. In-flight turns keep running until they finish or
// the timeout expires.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	observability.Emit(ctx, s.observer, EventStarted, observability.LevelInfo, "server", map[string]any{
		"addr": ln.Addr().String(),
	})

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	observability.Emit(shutdownCtx, s.observer, EventStopped, observability.LevelInfo, "server", map[string]any{
		"addr": ln.Addr().String(),
	})
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
