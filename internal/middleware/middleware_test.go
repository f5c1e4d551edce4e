package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
	"devmatch/internal/httputil"
	"devmatch/internal/metrics"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*models.AuthClaims, error) {
	if token != "good" {
		return nil, domain.ErrUnauthorized
	}
	c := &models.AuthClaims{Role: models.RoleAuthenticated}
	c.Subject = "u1"
	return c, nil
}

func (stubVerifier) Close() error { return nil }

// echoUser writes the authenticated user ID.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, httputil.GetUserID(r))
})

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware(stubVerifier{}, discard)(echoUser)

	tests := []struct {
		name   string
		method string
		target string
		header string
		status int
		body   string
	}{
		{"valid bearer", http.MethodGet, "/api/matches", "Bearer good", http.StatusOK, "u1"},
		{"lowercase scheme", http.MethodGet, "/api/matches", "bearer good", http.StatusOK, "u1"},
		{"missing token", http.MethodGet, "/api/matches", "", http.StatusUnauthorized, ""},
		{"wrong scheme", http.MethodGet, "/api/matches", "Basic good", http.StatusUnauthorized, ""},
		{"invalid token", http.MethodGet, "/api/matches", "Bearer bad", http.StatusUnauthorized, ""},
		{"query token on api", http.MethodGet, "/api/matches?access_token=good", "", http.StatusUnauthorized, ""},
		{"query token on ws", http.MethodGet, "/ws/me?access_token=good", "", http.StatusOK, "u1"},
		{"health is public", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "/api/swipes", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

type fakeLimiter struct {
	decision repositories.RateDecision
	err      error
	keys     []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (repositories.RateDecision, error) {
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) })

	tests := []struct {
		name       string
		limiter    *fakeLimiter
		userID     string
		status     int
		retryAfter string
	}{
		{"allowed", &fakeLimiter{decision: repositories.RateDecision{Allowed: true, Limit: 10, Remaining: 9, ResetIn: time.Minute}}, "u1", http.StatusCreated, ""},
		{"denied", &fakeLimiter{decision: repositories.RateDecision{Allowed: false, Limit: 10, ResetIn: 1500 * time.Millisecond}}, "u1", http.StatusTooManyRequests, "2"},
		{"limiter down", &fakeLimiter{err: errors.New("redis: connection refused")}, "u1", http.StatusCreated, ""},
		{"anonymous", &fakeLimiter{}, "", http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RateLimit(tt.limiter, "swipe", 10, time.Minute, metrics.New(), discard)(ok)
			r := httptest.NewRequest(http.MethodPost, "/api/swipes", nil)
			if tt.userID != "" {
				r = httputil.WithUserID(r, tt.userID)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
			if tt.userID != "" {
				assert.Equal(t, []string{"swipe:" + tt.userID}, tt.limiter.keys)
			} else {
				assert.Empty(t, tt.limiter.keys)
			}
			if tt.status == http.StatusTooManyRequests {
				assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
				assert.Contains(t, w.Body.String(), domain.ErrRateLimited.Error())
			}
		})
	}
}

func TestRateLimitDisabled(t *testing.T) {
	limiter := &fakeLimiter{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RateLimit(limiter, "message", 0, time.Minute, nil, discard)(next)

	r := httputil.WithUserID(httptest.NewRequest(http.MethodPost, "/", nil), "u1")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Empty(t, limiter.keys)
}

func TestRequestLoggerAndRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, httputil.GetRequestID(r))
		w.WriteHeader(http.StatusTeapot)
	})

	m := metrics.New()
	h := RequestLogger(discard, m)(AuthMiddleware(stubVerifier{}, discard)(RoutePattern(mux)))

	r := httptest.NewRequest(http.MethodGet, "/api/matches/abc", nil)
	r.Header.Set("Authorization", "Bearer good")
	r.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() != "devmatch_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "route" && l.GetValue() == "GET /api/matches/{id}" {
					found = true
				}
			}
		}
	}
	assert.True(t, found, "request counted under its route pattern")
}

func TestRequestLoggerGeneratesID(t *testing.T) {
	h := RequestLogger(discard, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeout(t *testing.T) {
	var deadline bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, deadline)

	r := httptest.NewRequest(http.MethodGet, "/ws/me", nil)
	r.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.False(t, deadline)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
