package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"devmatch/internal/domain"
	"devmatch/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		conflictErr    *domain.ConflictError
		rateLimitErr   *domain.RateLimitError
		unavailableErr *domain.UnavailableError
	)

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]any{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	case errors.As(err, &rateLimitErr):
		secs := int(math.Ceil(rateLimitErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		httputil.RespondErrorWithExtras(w, http.StatusTooManyRequests, rateLimitErr.Error(),
			map[string]any{"retry_after": secs})
	case errors.As(err, &unavailableErr):
		slog.Warn("request failed on transient error", "op", unavailableErr.Op, "error", unavailableErr.Cause)
		w.Header().Set("Retry-After", "1")
		httputil.RespondError(w, http.StatusServiceUnavailable, domain.ErrUnavailable.Error())
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondCreated writes 201 for a new resource and 200 when an existing one was returned.
func respondCreated(w http.ResponseWriter, created bool, v any) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, v)
}

// optionalUUID reads an optional UUID query parameter, writing a 400 on failure.
func optionalUUID(w http.ResponseWriter, r *http.Request, name string) (*string, bool) {
	v, err := httputil.QueryUUID(r, name)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return v, true
}
