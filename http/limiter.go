package http

import (
	"sync"

	"golang.org/x/time/rate"
)

// keyedLimiter keeps one token bucket per key: a client IP for the server,
// a host for the fetcher.
// TODO: evict limiters of keys that have been idle for a while.
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newKeyedLimiter(limit rate.Limit, burst int) *keyedLimiter {
	return &keyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    max(burst, 1),
	}
}

func (l *keyedLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}
