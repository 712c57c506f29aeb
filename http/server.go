// Package http serves a selectql.Runner over HTTP using gin, and fetches
// remote documents for one-shot runs.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/selectql"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// DefaultMaxBodyBytes is the default limit for request bodies (8 MiB).
const DefaultMaxBodyBytes = 8 << 20

// DefaultShutdownTimeout bounds how long in-flight requests may take to
// finish once the server is asked to stop.
const DefaultShutdownTimeout = 10 * time.Second

// Header names understood by the server.
const (
	TokenHeader     = "X-Parser-Token"
	RequestIDHeader = "X-Request-ID"
)

// Server exposes template runs as a JSON API:
//
//	POST /parse    {"html": "...", "vars": {...}, "template": {...}}
//	GET  /health
//	GET  /metrics  (only with WithMetrics)
type Server struct {
	runner selectql.Runner
	logger *slog.Logger

	token        string
	maxBodyBytes int64
	rps          float64
	burst        int
	gatherer     prometheus.Gatherer

	router *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request logs. Logs are discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithToken requires every request to carry the token in TokenHeader.
// An empty token disables authentication.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithMaxBodyBytes sets the request body limit.
// Defaults to DefaultMaxBodyBytes if not specified.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// WithRateLimit limits each client IP to rps requests per second with the
// given burst. A non-positive rps disables rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rps = rps
		s.burst = burst
	}
}

// WithMetrics exposes the gatherer's metrics on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a new Server for runner.
func NewServer(runner selectql.Runner, opts ...Option) *Server {
	s := &Server{
		runner:       runner,
		logger:       slog.New(slog.DiscardHandler),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	r.Use(gin.Recovery(), requestID(), s.logRequests())
	if s.rps > 0 {
		r.Use(rateLimit(newKeyedLimiter(rate.Limit(s.rps), s.burst)))
	}
	r.Use(s.authenticate())

	r.GET("/health", s.handleHealth)
	r.POST("/parse", s.handleParse)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
