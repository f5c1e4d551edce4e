package services

import (
	"context"

	"devmatch/internal/domain/models"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	OwnerID     string   `json:"-"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// ProjectService defines business logic operations for projects
type ProjectService interface {
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)

	// ListProjects retrieves all projects owned by a user
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)

	// Deck returns projects the actor could swipe on
	Deck(ctx context.Context, actorID string, limit int) ([]models.Project, error)
}
