package repositories

import (
	"context"

	"devmatch/internal/domain/models"
)

// InterestRepository persists swipe interests.
type InterestRepository interface {
	// Upsert stores the interest and fills ID and timestamps.
	// With replace=true an existing (actor, target, scope) row takes the new action.
	// With replace=false an existing row is left untouched, interest is overwritten with it
	// and *domain.ConflictError is returned.
	Upsert(ctx context.Context, interest *models.Interest, replace bool) error

	// Get returns the actor's interest in target for the scope, or nil if none exists.
	Get(ctx context.Context, actorID, targetID string, projectID *string) (*models.Interest, error)

	// FindReciprocal returns target's interest in actor for the same scope whose action
	// is one of actions. Returns nil if none exists.
	FindReciprocal(ctx context.Context, actorID, targetID string, projectID *string, actions []models.InterestAction) (*models.Interest, error)

	// ListUnmatchedMutual returns pairs of positive interests in the same scope with no
	// match between the two users, oldest first. With userID set, Outgoing is that user's
	// interest; with userID nil every pair is returned once. sameActionOnly keeps only
	// pairs whose two actions are identical.
	ListUnmatchedMutual(ctx context.Context, userID *string, sameActionOnly bool, limit int) ([]models.MutualInterest, error)
}
