package handler

import (
	"log/slog"
	"net/http"

	"devmatch/internal/domain/services"
	"devmatch/internal/httputil"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService services.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// ListProjects retrieves all projects owned by the caller
// GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.ListProjects(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a new project
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.OwnerID = httputil.GetUserID(r)

	project, err := h.projectService.CreateProject(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a project by ID
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// Deck returns projects the caller could swipe on
// GET /api/deck/projects?limit=
func (h *ProjectHandler) Deck(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	projects, err := h.projectService.Deck(r.Context(), httputil.GetUserID(r), limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}
