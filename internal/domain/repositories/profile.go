package repositories

import (
	"context"

	"devmatch/internal/domain/models"
)

// ProfileRepository defines data access operations for profiles
type ProfileRepository interface {
	// Upsert creates or replaces the profile keyed by its ID
	Upsert(ctx context.Context, profile *models.Profile) error

	// GetByID returns domain.ErrNotFound if the profile does not exist
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// ListUnswiped returns profiles actorID has not swiped on in the scope, excluding actorID.
	ListUnswiped(ctx context.Context, actorID string, projectID *string, limit int) ([]models.Profile, error)
}
