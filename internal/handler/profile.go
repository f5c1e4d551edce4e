package handler

import (
	"log/slog"
	"net/http"

	"devmatch/internal/domain/services"
	"devmatch/internal/httputil"
)

// ProfileHandler handles profile and people deck HTTP requests
type ProfileHandler struct {
	profileService services.ProfileService
	logger         *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService services.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// GetProfile retrieves a profile by user ID
// GET /api/profiles/{id}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathParam(w, r, "id", "Profile ID")
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// UpsertMe creates or replaces the caller's profile
// PUT /api/profiles/me
func (h *ProfileHandler) UpsertMe(w http.ResponseWriter, r *http.Request) {
	var req services.UpsertProfileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = httputil.GetUserID(r)

	profile, err := h.profileService.UpsertProfile(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profile)
}

// Deck returns profiles the caller has not swiped on yet
// GET /api/deck/profiles?project_id=&limit=
func (h *ProfileHandler) Deck(w http.ResponseWriter, r *http.Request) {
	projectID, ok := optionalUUID(w, r, "project_id")
	if !ok {
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profiles, err := h.profileService.Deck(r.Context(), httputil.GetUserID(r), projectID, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profiles)
}
