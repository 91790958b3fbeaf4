// Package ratelimit throttles page source lookups with a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/linkrank/internal/crawler"
)

// Config holds rate limiter configuration.
type Config struct {
	RPS   float64
	Burst int
}

// Enabled reports whether cfg asks for any throttling.
func (c Config) Enabled() bool {
	return c.RPS > 0
}

// Source wraps a PageSource so that lookups share one token bucket.
type Source struct {
	next    crawler.PageSource
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Wrap returns src throttled to cfg. A non-positive RPS disables the limit
// and src is returned unchanged.
func Wrap(src crawler.PageSource, cfg Config, logger *zap.Logger) crawler.PageSource {
	if !cfg.Enabled() {
		return src
	}
	return New(src, cfg, logger)
}

// New creates a throttled Source.
func New(src crawler.PageSource, cfg Config, logger *zap.Logger) *Source {
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		next:    src,
		limiter: rate.NewLimiter(r, burst),
		logger:  logger,
	}
}

// Lookup blocks until a token is available, then delegates.
func (s *Source) Lookup(ctx context.Context, id string) ([]string, error) {
	start := time.Now()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		s.logger.Debug("lookup throttled", zap.String("page", id), zap.Duration("delay", waited))
	}
	return s.next.Lookup(ctx, id) //nolint:wrapcheck // errors belong to the wrapped source
}
