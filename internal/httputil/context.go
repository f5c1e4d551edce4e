package httputil

import (
	"context"
	"net/http"
)

type contextKey int

const (
	userIDKey contextKey = iota
	requestIDKey
)

// WithUserID adds the authenticated user ID to the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(ContextWithUserID(r.Context(), userID))
}

// ContextWithUserID is WithUserID for code that holds a context rather than a request.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// WithRequestID tags the request with an ID used in logs and error responses
func WithRequestID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
}

func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
