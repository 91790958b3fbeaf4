package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/app"
	"github.com/JakeFAU/linkrank/internal/config"
	"github.com/JakeFAU/linkrank/internal/metrics"
	"github.com/JakeFAU/linkrank/internal/storage"
)

const defaultRequestTimeout = 60 * time.Second

// Pipeline is the crawl service behind the handlers; *app.Pipeline
// satisfies it.
type Pipeline interface {
	Crawl(ctx context.Context, req app.Request) (storage.Result, error)
	Result(ctx context.Context, crawlID string) (storage.Result, error)
	Render(ctx context.Context, w io.Writer, res storage.Result, format string) (string, error)
}

// Server wires HTTP handlers to the pipeline.
type Server struct {
	router   chi.Router
	pipeline Pipeline
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	timeout  time.Duration
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry serves reg at /metrics and records request metrics into it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithRequestTimeout bounds each request. Crawls also honour
// crawler.timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer constructs a Server with middleware and routes.
func NewServer(p Pipeline, cfg config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		pipeline: p,
		cfg:      cfg,
		logger:   zap.NewNop(),
		timeout:  defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	httpMetrics, err := metrics.NewHTTP(s.registry)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(timeoutMiddleware(s.timeout))
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/crawls", func(r chi.Router) {
			r.Post("/", s.submitCrawl)
			r.Route("/{crawl_id}", func(r chi.Router) {
				r.Get("/", s.getCrawl)
				r.Get("/render", s.renderCrawl)
			})
		})
	})

	s.router = r
	return s, nil
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}
