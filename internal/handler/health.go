package handler

import (
	"context"
	"net/http"
	"time"

	"devmatch/internal/httputil"
)

// HealthHandler reports liveness and whether storage answers.
type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler takes the storage ping; nil means there is nothing to check.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			httputil.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "degraded",
				"storage": err.Error(),
			})
			return
		}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
