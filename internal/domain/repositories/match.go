package repositories

import (
	"context"

	"devmatch/internal/domain/models"
)

// MatchRepository persists matches. The (user1, user2, scope) key is unique.
type MatchRepository interface {
	// Create inserts a match for the normalized pair. If one already exists for the
	// pair and scope, match is overwritten with the stored row and created is false.
	Create(ctx context.Context, match *models.Match) (created bool, err error)

	// GetByID returns domain.ErrNotFound if the match does not exist
	GetByID(ctx context.Context, id string) (*models.Match, error)

	// GetByPair looks a match up in either participant order.
	GetByPair(ctx context.Context, userA, userB string, projectID *string) (*models.Match, error)

	// ListSummaries returns the user's matches newest first with counterpart,
	// project, room, last message and unread count filled in.
	ListSummaries(ctx context.Context, userID string) ([]models.MatchSummary, error)

	// ListWithoutRoom returns up to limit matches that have no chat room, oldest first.
	ListWithoutRoom(ctx context.Context, limit int) ([]models.Match, error)
}
