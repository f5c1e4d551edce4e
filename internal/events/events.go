// Package events carries domain events between services and the realtime hub.
// In production the bus is NATS, so every API instance sees every chat message;
// without NATS_URL an in-process bus is used.
package events

import (
	"context"
	"time"

	"devmatch/internal/domain/models"
)

const (
	SubjectMatchCreated = "devmatch.match.created"
	SubjectChatMessage  = "devmatch.chat.message"
	SubjectMessagesRead = "devmatch.chat.read"
)

// Publisher sends a JSON-encoded event on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// Handler receives the raw JSON payload of an event.
type Handler func(data []byte)

// Bus is a Publisher that can also be subscribed to.
type Bus interface {
	Publisher
	// Subscribe registers h for subject and returns a function that removes it.
	Subscribe(subject string, h Handler) (func(), error)
	Close() error
}

// MatchCreated is published once per newly created match.
type MatchCreated struct {
	MatchID   string    `json:"match_id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	ProjectID *string   `json:"project_id,omitempty"`
	RoomID    string    `json:"room_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageSent is published after a chat message is stored.
type MessageSent struct {
	Message     models.ChatMessage `json:"message"`
	RecipientID string             `json:"recipient_id"`
}

// MessagesRead is published when a reader marks a room read.
type MessagesRead struct {
	RoomID   string    `json:"room_id"`
	ReaderID string    `json:"reader_id"`
	Count    int       `json:"count"`
	ReadAt   time.Time `json:"read_at"`
}
