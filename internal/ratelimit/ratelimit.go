// Package ratelimit defines the request limiter used by the HTTP layer and
// its in-process implementation.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed.
// It returns the decision, the remaining allowance and when it resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int, time.Time, error)
}

// Local is a per-key token bucket pool held in memory
type Local struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	limit rate.Limit
	burst int
	now   func() time.Time
}

// NewLocal allows requestsPerMinute on average with the given burst
func NewLocal(requestsPerMinute, burst int) *Local {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	return &Local{
		m:     make(map[string]*rate.Limiter),
		limit: rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst: burst,
		now:   time.Now,
	}
}

func (l *Local) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.m[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.m[key] = lim
	return lim
}

func (l *Local) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	lim := l.get(key)
	now := l.now()

	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	reset := now
	if tokens < 1 {
		reset = now.Add(time.Duration((1 - tokens) / float64(l.limit) * float64(time.Second)))
	}
	return allowed, remaining, reset, nil
}
