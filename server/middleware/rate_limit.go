// Package middleware provides the HTTP middleware of the research API,
// chiefly per-client request rate limiting keyed by caller identity.
package middleware

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter tracks one token bucket per key. Keys are typically client
// IPs; buckets are created on first use and live for the process lifetime.
type RateLimiter struct {
	mu        sync.Mutex
	perSecond rate.Limit
	burst     int
	limits    map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter allowing perSecond requests per key with
// the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		limits:    make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limits[key]
	if !ok {
		l = rate.NewLimiter(rl.perSecond, rl.burst)
		rl.limits[key] = l
	}
	return l
}

// Allow reports whether a request under the key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Wait blocks until a request under the key may proceed or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.limiter(key).Wait(ctx)
}
