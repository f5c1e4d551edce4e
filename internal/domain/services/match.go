package services

import (
	"context"

	"devmatch/internal/domain/models"
)

// MatchService creates matches and their conversations.
type MatchService interface {
	// CreateMatch is idempotent in either participant order.
	CreateMatch(ctx context.Context, userA, userB string, projectID *string) (match *models.Match, created bool, err error)

	// CreateChatRoom is idempotent: a match has at most one room.
	CreateChatRoom(ctx context.Context, matchID string) (room *models.ChatRoom, created bool, err error)

	// Provision creates the match and its room atomically.
	Provision(ctx context.Context, userA, userB string, projectID *string) (*models.Match, *models.ChatRoom, bool, error)

	// EnsureChatRoom returns the match's room, creating it if missing. Participants only.
	EnsureChatRoom(ctx context.Context, matchID, userID string) (room *models.ChatRoom, created bool, err error)

	// GetMatch returns the match if userID participates in it.
	GetMatch(ctx context.Context, matchID, userID string) (*models.Match, error)

	// ListMatches returns the user's matches with summaries, newest first.
	// Mutual interests left unmatched by a failed detection are provisioned first.
	ListMatches(ctx context.Context, userID string) ([]models.MatchSummary, error)

	// RepairMissingRooms creates rooms for up to limit matches lacking one.
	RepairMissingRooms(ctx context.Context, limit int) (int, error)

	// ReconcilePending provisions matches for up to limit mutual interests that have
	// none, for one user or, with userID nil, for everyone. Returns the number created.
	ReconcilePending(ctx context.Context, userID *string, limit int) (int, error)
}
