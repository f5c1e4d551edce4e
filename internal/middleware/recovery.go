package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"devmatch/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem response and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can drop the connection quietly.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				logger.ErrorContext(r.Context(), "handler panicked",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", httputil.GetRequestID(r),
					"stack", string(debug.Stack()),
				)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
