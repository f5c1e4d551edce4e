package repositories

import (
	"context"
	"time"
)

// RateDecision is the outcome of counting one request against a fixed window.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error)
}
