package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"devmatch/internal/config"
	"devmatch/internal/domain"
)

func TestRetry(t *testing.T) {
	permanent := errors.New("constraint violated")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"succeeds first time", 0, nil, 1, nil},
		{"recovers after transient failures", 2, unavailable("op"), 3, nil},
		{"gives up after max attempts", 10, unavailable("op"), 3, domain.ErrUnavailable},
		{"permanent error is not retried", 10, permanent, 1, permanent},
		{"not found is not retried", 10, domain.ErrNotFound, 1, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetrier(testPolicy().Retry, nil, discardLogger())
			calls := 0
			v, err := Retry(context.Background(), r, "op", func(ctx context.Context) (int, error) {
				calls++
				if calls <= tt.failures {
					return 0, tt.err
				}
				return 42, nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	r := NewRetrier(config.RetryPolicy{MaxAttempts: 100, InitialInterval: 50 * time.Millisecond, MaxInterval: time.Second}, nil, discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	err := r.Do(ctx, "op", func(ctx context.Context) error {
		calls++
		return unavailable("op")
	})
	assert.Error(t, err)
	assert.Less(t, calls, 100)
}

func TestRetrierSingleAttempt(t *testing.T) {
	r := NewRetrier(config.RetryPolicy{}, nil, discardLogger())
	calls := 0
	err := r.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return unavailable("op")
	})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, 1, calls)
}
