package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"devmatch/internal/auth"
	"devmatch/internal/httputil"
)

// publicPaths skip authentication.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// AuthMiddleware verifies the bearer token and puts its subject in the request context.
// Browsers cannot set headers on a websocket handshake, so /ws/ routes also accept ?access_token=.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.HasPrefix(r.URL.Path, "/ws/") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
