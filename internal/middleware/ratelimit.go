package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/repositories"
	"devmatch/internal/httputil"
	"devmatch/internal/metrics"
)

// RateLimit caps how often one user may hit a route. A limit of zero disables it.
// If the limiter itself fails the request is let through.
func RateLimit(limiter repositories.RateLimiter, action string, limit int, window time.Duration, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := httputil.GetUserID(r)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			d, err := limiter.Allow(r.Context(), action+":"+userID, limit, window)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request", "action", action, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Ceil(d.ResetIn.Seconds()))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(retryAfter))

			if !d.Allowed {
				m.RateLimited(action)
				logger.Info("rate limited", "action", action, "user_id", userID, "retry_after", retryAfter)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				rlErr := &domain.RateLimitError{Action: action, RetryAfter: d.ResetIn}
				httputil.RespondErrorWithExtras(w, http.StatusTooManyRequests, rlErr.Error(),
					map[string]any{"action": action, "retry_after": retryAfter})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
