// Package ratelimit implements a token bucket limiter for per-site request
// pacing inside provider fetchers.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jobsparser/jobsparser/internal/scraper"
)

// Config holds rate limiter configuration.
type Config struct {
	// DefaultRPS caps requests per second per site; <= 0 means unlimited.
	DefaultRPS float64
	// DefaultBurst is the bucket size per site; defaults to 1.
	DefaultBurst int
}

// Limiter manages one token bucket per site. Buckets are independent, so one
// site's pacing never throttles another.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[scraper.Site]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.DefaultRPS)
	if cfg.DefaultRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.DefaultBurst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[scraper.Site]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a token is available for the given site, respecting the
// context.
func (l *Limiter) Wait(ctx context.Context, site scraper.Site) error {
	l.mu.Lock()
	limiter, exists := l.limiters[site]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[site] = limiter
	}
	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
