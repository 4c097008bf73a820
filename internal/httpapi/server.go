// Package httpapi exposes the deep-link parser over HTTP.
//
//	GET  /v1/resolve?url=...        resolve a URL on any surface
//	POST /v1/links                  build a link from {"route", "params"}
//	GET  /v1/routes                 list the route table
//	GET  /v1/launch/decode?url=...  decode a client launch URL
//	GET  /healthz, /readyz          liveness and readiness
//	GET  /metrics                   Prometheus counters
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/deeplink/internal/deeplink"
	"github.com/roach88/deeplink/internal/launch"
	"github.com/roach88/deeplink/internal/metrics"
)

// Server timeouts.
const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 30 * time.Second
	serverIdleTimeout  = 120 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 64 << 10

// Server serves the HTTP API.
type Server struct {
	parser   *deeplink.Parser
	recorder *metrics.Recorder
	codec    launch.Codec
	logger   *slog.Logger
	tracer   trace.Tracer
	ready    []ReadyCheck
}

// ReadyCheck reports whether a dependency is ready. Nil means ready.
type ReadyCheck func(ctx context.Context) error

// Option configures a Server.
type Option func(*Server)

// WithRecorder sets the metrics recorder served on /metrics. The same
// recorder should observe the parser.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithLaunchCodec sets the codec used by /v1/launch/decode.
func WithLaunchCodec(c launch.Codec) Option {
	return func(s *Server) {
		s.codec = c
	}
}

// WithLogger sets the access and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithReadyCheck adds a readiness check to /readyz.
func WithReadyCheck(check ReadyCheck) Option {
	return func(s *Server) {
		s.ready = append(s.ready, check)
	}
}

// New creates a Server around p.
func New(p *deeplink.Parser, opts ...Option) *Server {
	s := &Server{
		parser: p,
		codec:  launch.DefaultCodec(),
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/roach88/deeplink/internal/httpapi"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder == nil {
		s.recorder = metrics.NewRecorder()
	}
	return s
}

// Handler returns the routed handler wrapped in request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/resolve", s.handleResolve)
	mux.HandleFunc("POST /v1/links", s.handleCreate)
	mux.HandleFunc("GET /v1/routes", s.handleRoutes)
	mux.HandleFunc("GET /v1/launch/decode", s.handleLaunchDecode)
	mux.Handle("GET /healthz", healthHandler())
	mux.Handle("GET /readyz", readyHandler(s.ready...))
	mux.Handle("GET /metrics", s.recorder.Handler())

	return s.middleware(mux)
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.logger.Info("http server listening", "addr", l.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}
