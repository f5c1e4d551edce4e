package repositories

import (
	"context"
	"time"

	"devmatch/internal/domain/models"
)

// ChatRoomRepository persists chat rooms. MatchID is unique.
type ChatRoomRepository interface {
	// Create inserts a room for room.MatchID. If the match already has a room,
	// room is overwritten with it and created is false.
	Create(ctx context.Context, room *models.ChatRoom) (created bool, err error)

	GetByID(ctx context.Context, id string) (*models.ChatRoom, error)
	GetByMatchID(ctx context.Context, matchID string) (*models.ChatRoom, error)
}

// ChatMessageRepository persists the append-only message log of a room.
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error

	// List returns up to page.Limit messages older than page.Before, oldest first.
	List(ctx context.Context, roomID string, page models.MessagePage) ([]models.ChatMessage, error)

	// MarkRead sets read_at on unread messages in the room not sent by readerID.
	// Returns the number of messages updated.
	MarkRead(ctx context.Context, roomID, readerID string, at time.Time) (int, error)
}
