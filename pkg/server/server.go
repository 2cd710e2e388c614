// Package server exposes the generation adapters over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zen-systems/mediagate/pkg/audit"
	"github.com/zen-systems/mediagate/pkg/metrics"
	"github.com/zen-systems/mediagate/pkg/router"
)

const (
	// Headers carrying a per-request provider override.
	HeaderProviderName = "X-Provider-Name"
	HeaderProviderKey  = "X-Provider-Key"
	HeaderProviderURL  = "X-Provider-URL"

	readyMessage    = "mediagate API is ready"
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server routes API requests to the adapter chosen by its resolver.
type Server struct {
	resolver  *router.Resolver
	audit     *audit.Logger
	collector *metrics.Collector
	logger    *zap.Logger
	origins   []string
	handler   http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithAudit records accepted video jobs to the given logger.
func WithAudit(a *audit.Logger) Option {
	return func(s *Server) {
		s.audit = a
	}
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.collector = c
	}
}

// WithAllowedOrigins restricts CORS to the given origins. "*" allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// New creates a server around resolver.
func New(resolver *router.Resolver, opts ...Option) *Server {
	s := &Server{
		resolver: resolver,
		origins:  []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("POST /api/generate/text", s.handleText)
	mux.HandleFunc("POST /api/generate/image", s.handleImage)
	mux.HandleFunc("POST /api/generate/video", s.handleVideo)
	mux.HandleFunc("GET /api/generate/video/{id}", s.handleVideoStatus)
	if s.collector != nil {
		mux.Handle("GET /metrics", s.collector.Handler())
	}

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		RequestLogger(s.logger),
		CORS(s.origins),
	}
	if s.collector != nil {
		middlewares = append(middlewares, MetricsMiddleware(s.collector))
	}
	s.handler = Chain(mux, middlewares...)
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("listening", zap.String("addr", "http://"+ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
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
