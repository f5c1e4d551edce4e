package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"devmatch/internal/config"
	"devmatch/internal/domain"
	"devmatch/internal/metrics"
)

// Retrier retries storage calls that fail with a transient error, with bounded
// exponential backoff. Any other error is returned immediately.
type Retrier struct {
	policy  config.RetryPolicy
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRetrier(policy config.RetryPolicy, m *metrics.Metrics, logger *slog.Logger) *Retrier {
	return &Retrier{policy: policy, metrics: m, logger: logger}
}

func (r *Retrier) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = 0 // bounded by attempts instead

	attempts := r.policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do runs fn until it succeeds, fails permanently, or attempts run out.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Retry is Do for operations that return a value.
func Retry[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if err != nil && !domain.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		r.metrics.Retried(op)
		r.logger.Warn("transient failure, retrying",
			"op", op,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}
	return backoff.RetryNotifyWithData(operation, r.backOff(ctx), notify)
}
