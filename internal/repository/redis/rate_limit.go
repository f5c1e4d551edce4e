// Package redis holds the Redis-backed repositories.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"devmatch/internal/domain/repositories"
)

const keyPrefix = "devmatch:ratelimit:"

type rateLimiter struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewRateLimiter counts with INCR on a key that expires with its window,
// so every API instance shares the same counters.
func NewRateLimiter(client *goredis.Client, logger *slog.Logger) repositories.RateLimiter {
	return &rateLimiter{client: client, logger: logger}
}

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *rateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (repositories.RateDecision, error) {
	k := keyPrefix + key

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return repositories.RateDecision{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			r.logger.Warn("failed to set rate limit expiry", "key", k, "error", err)
		}
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		// A key without expiry would never reset.
		if ttl == -1 {
			r.client.Expire(ctx, k, window)
		}
		ttl = window
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return repositories.RateDecision{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   ttl,
	}, nil
}
