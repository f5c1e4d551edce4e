package services

import (
	"context"
	"time"

	"devmatch/internal/domain/models"
)

// SendMessageRequest is a message posted by the authenticated sender.
type SendMessageRequest struct {
	RoomID   string `json:"-"`
	SenderID string `json:"-"`
	Content  string `json:"content"`
}

// ListMessagesRequest pages backwards through a room's history. The next page's
// cursor is the created_at and id of the oldest message returned.
type ListMessagesRequest struct {
	RoomID   string
	UserID   string
	Limit    int
	Before   *time.Time
	BeforeID *string
}

// ChatService is the conversation surface of a match.
type ChatService interface {
	GetRoom(ctx context.Context, roomID, userID string) (*models.ChatRoom, error)

	SendMessage(ctx context.Context, req *SendMessageRequest) (*models.ChatMessage, error)

	// ListMessages returns messages oldest first.
	ListMessages(ctx context.Context, req *ListMessagesRequest) ([]models.ChatMessage, error)

	// MarkRead marks the counterpart's unread messages as read and returns the count.
	MarkRead(ctx context.Context, roomID, readerID string) (int, error)
}
