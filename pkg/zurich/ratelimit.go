package zurich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimit is a token bucket setting. RPS <= 0 disables limiting for the service.
type RateLimit struct {
	RPS   float64
	Burst int
}

// DefaultRateLimits keeps the server a polite client of the public endpoints.
func DefaultRateLimits() map[string]RateLimit {
	return map[string]RateLimit{
		ServiceCKAN:     {RPS: 5, Burst: 10},
		ServiceParkenDD: {RPS: 1, Burst: 2},
		ServiceWFS:      {RPS: 2, Burst: 4},
		ServiceParis:    {RPS: 2, Burst: 4},
		ServiceTourism:  {RPS: 2, Burst: 4},
		ServiceSPARQL:   {RPS: 2, Burst: 2},
	}
}

// RateLimiter manages rate limiting for the different upstream services
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewRateLimiter builds one limiter per configured service.
func NewRateLimiter(limits map[string]RateLimit) *RateLimiter {
	rl := &RateLimiter{limiters: make(map[string]*rate.Limiter, len(limits))}
	for service, l := range limits {
		rl.limiters[service] = newLimiter(l)
	}
	return rl
}

func newLimiter(l RateLimit) *rate.Limiter {
	if l.RPS <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := l.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(l.RPS), burst)
}

// Update replaces the limiter of a service.
func (rl *RateLimiter) Update(service string, l RateLimit) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiters[service] = newLimiter(l)
}

// Wait blocks until the rate limit for the specified service allows an event
// or the context is canceled.
func (rl *RateLimiter) Wait(ctx context.Context, service string) error {
	rl.mu.RLock()
	limiter, exists := rl.limiters[service]
	rl.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no rate limiter defined for service: %s", service)
	}

	if err := limiter.Wait(ctx); err != nil {
		slog.Debug("rate limiter wait error", "service", service, "error", err)
		return err
	}
	return nil
}
