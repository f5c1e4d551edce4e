package handler

import (
	"log/slog"
	"net/http"

	"devmatch/internal/domain"
	"devmatch/internal/domain/services"
	"devmatch/internal/httputil"
)

// MatchHandler handles match HTTP requests
type MatchHandler struct {
	matchService services.MatchService
	swipeService services.SwipeService
	logger       *slog.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService services.MatchService, swipeService services.SwipeService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		swipeService: swipeService,
		logger:       logger,
	}
}

// CreateMatchRequest names the other participant. The caller is always one of the pair.
type CreateMatchRequest struct {
	UserID    string  `json:"user_id"`
	ProjectID *string `json:"project_id,omitempty"`
}

// CreateMatch creates a match between the caller and another user who like each other
// POST /api/matches
// Returns 201 if created, 200 with the existing match otherwise
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := httputil.GetUserID(r)

	mutual, err := h.swipeService.HasMutualInterest(r.Context(), userID, req.UserID, req.ProjectID)
	if err != nil {
		handleError(w, err)
		return
	}
	if !mutual {
		handleError(w, &domain.ValidationError{Message: "no mutual interest between the users"})
		return
	}

	match, created, err := h.matchService.CreateMatch(r.Context(), userID, req.UserID, req.ProjectID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondCreated(w, created, match)
}

// ListMatches retrieves the caller's matches
// GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListMatches(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, matches)
}

// GetMatch retrieves a single match
// GET /api/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := httputil.PathParam(w, r, "id", "Match ID")
	if !ok {
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, match)
}

// EnsureRoom returns the match's chat room, creating it if it is missing
// POST /api/matches/{id}/room
func (h *MatchHandler) EnsureRoom(w http.ResponseWriter, r *http.Request) {
	matchID, ok := httputil.PathParam(w, r, "id", "Match ID")
	if !ok {
		return
	}

	room, created, err := h.matchService.EnsureChatRoom(r.Context(), matchID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	respondCreated(w, created, room)
}
