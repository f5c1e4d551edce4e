package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"devmatch/internal/domain"
	"devmatch/internal/domain/services"
	"devmatch/internal/httputil"
)

// SwipeHandler handles swipe and interest HTTP requests
type SwipeHandler struct {
	swipeService services.SwipeService
	logger       *slog.Logger
}

// NewSwipeHandler creates a new swipe handler
func NewSwipeHandler(swipeService services.SwipeService, logger *slog.Logger) *SwipeHandler {
	return &SwipeHandler{
		swipeService: swipeService,
		logger:       logger,
	}
}

// Swipe records an interest and provisions a match when it is mutual
// POST /api/swipes
// Returns 201 if the interest is new, 200 if it was already recorded
func (h *SwipeHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	var req services.RecordInterestRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ActorID = httputil.GetUserID(r)

	result, err := h.swipeService.ProposeInterest(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	respondCreated(w, !result.Duplicate, result)
}

// RecordInterest stores an interest without match detection
// POST /api/interests
// Returns 201 if recorded, 200 with the stored interest if it already existed
func (h *SwipeHandler) RecordInterest(w http.ResponseWriter, r *http.Request) {
	var req services.RecordInterestRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ActorID = httputil.GetUserID(r)

	interest, err := h.swipeService.RecordInterest(r.Context(), &req)
	if err != nil {
		if interest != nil && errors.Is(err, domain.ErrConflict) {
			httputil.RespondJSON(w, http.StatusOK, interest)
			return
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, interest)
}

// FindReciprocal returns the target's positive interest in the caller
// GET /api/interests/reciprocal?target_id=&project_id=
func (h *SwipeHandler) FindReciprocal(w http.ResponseWriter, r *http.Request) {
	targetID := r.URL.Query().Get("target_id")
	if targetID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "target_id query parameter is required")
		return
	}
	projectID, ok := optionalUUID(w, r, "project_id")
	if !ok {
		return
	}

	interest, err := h.swipeService.FindReciprocalInterest(r.Context(), httputil.GetUserID(r), targetID, projectID)
	if err != nil {
		handleError(w, err)
		return
	}
	if interest == nil {
		httputil.RespondError(w, http.StatusNotFound, "no reciprocal interest")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, interest)
}
