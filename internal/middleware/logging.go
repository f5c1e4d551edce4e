package middleware

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"devmatch/internal/httputil"
	"devmatch/internal/metrics"
)

type routeKey struct{}

// route is filled in by RoutePattern once the mux has matched the request.
type route struct {
	pattern string
	userID  string
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogger assigns a request ID, logs each request, and records HTTP metrics.
// Server errors log at error level, client errors at info, the rest at debug.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			rt := &route{}
			r = httputil.WithRequestID(r, id)
			r = r.WithContext(context.WithValue(r.Context(), routeKey{}, rt))

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			pattern := rt.pattern
			if pattern == "" {
				pattern = "unmatched"
			}
			elapsed := time.Since(start)
			m.ObserveHTTP(r.Method, pattern, status, elapsed)

			level := slog.LevelDebug
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelInfo
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", pattern,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"user_id", rt.userID,
				"request_id", id,
			)
		})
	}
}

// RoutePattern must wrap the mux directly. The mux sets r.Pattern on the request
// it receives, which is a copy of the one RequestLogger holds, so the route and
// user are handed back through the context.
func RoutePattern(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if rt, ok := r.Context().Value(routeKey{}).(*route); ok {
			rt.pattern = r.Pattern
			rt.userID = httputil.GetUserID(r)
		}
	})
}

// Timeout bounds the request context. Websocket upgrades and event streams are long-lived and skipped.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 || isLongLived(r) {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isLongLived(r *http.Request) bool {
	return r.Header.Get("Upgrade") != "" || strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
