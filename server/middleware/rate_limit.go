package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// DefaultRatePerSecond is the default steady-state request rate per key.
	DefaultRatePerSecond = 10
	// DefaultBurst is the default burst size per key.
	DefaultBurst = 20
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-key rate limiting.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*limiterEntry
	every  rate.Limit
	burst  int
}

// NewRateLimiter creates a new rate limiter. Non-positive values take defaults.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRatePerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		limits: make(map[string]*limiterEntry),
		every:  rate.Limit(perSecond),
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limits[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter:  rate.NewLimiter(rl.every, rl.burst),
		lastSeen: time.Now(),
	}
	rl.limits[key] = entry
	return entry.limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Prune forgets keys not seen for idle and returns how many were dropped.
func (rl *RateLimiter) Prune(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	pruned := 0
	for key, entry := range rl.limits {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limits, key)
			pruned++
		}
	}
	return pruned
}

// KeyFunc extracts the rate-limit key from a request.
type KeyFunc func(c echo.Context) string

// RealIPKey keys requests by client address.
func RealIPKey(c echo.Context) string {
	return c.RealIP()
}

// RateLimit returns echo middleware rejecting requests over the limit with 429.
// onReject renders the rejection; nil writes a bare 429.
func RateLimit(rl *RateLimiter, key KeyFunc, onReject echo.HandlerFunc) echo.MiddlewareFunc {
	if key == nil {
		key = RealIPKey
	}
	if onReject == nil {
		onReject = func(c echo.Context) error {
			return c.NoContent(http.StatusTooManyRequests)
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(key(c)) {
				return onReject(c)
			}
			return next(c)
		}
	}
}
