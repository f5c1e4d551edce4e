package repositories

import (
	"context"

	"devmatch/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project and returns it with generated ID and timestamps
	Create(ctx context.Context, project *models.Project) error

	// GetByID returns domain.ErrNotFound if the project does not exist
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// ListByOwner retrieves a user's projects, ordered by created_at DESC
	ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error)

	// ListUnswiped returns projects not owned by actorID whose owner actorID
	// has not swiped on within that project's scope.
	ListUnswiped(ctx context.Context, actorID string, limit int) ([]models.Project, error)
}
