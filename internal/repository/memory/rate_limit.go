package memory

import (
	"context"
	"sync"
	"time"

	"devmatch/internal/domain/repositories"
)

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a single-process fixed window limiter, used when Redis is not configured.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string]*window), now: time.Now}
}

func (l *RateLimiter) Allow(_ context.Context, key string, limit int, d time.Duration) (repositories.RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.windows) > 10000 {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		l.windows[key] = w
	}
	w.count++

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return repositories.RateDecision{
		Allowed:   w.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   w.resetAt.Sub(now),
	}, nil
}
