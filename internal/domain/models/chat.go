package models

import "time"

// ChatRoom is the conversation container for exactly one match.
type ChatRoom struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is append-only. ReadAt is set once the recipient marks the room read.
type ChatMessage struct {
	ID        string     `json:"id"`
	RoomID    string     `json:"room_id"`
	SenderID  string     `json:"sender_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// MessagePage selects a window of messages, newest first, older than the cursor.
// The cursor is (Before, BeforeID); messages sharing Before's timestamp are cut by ID.
type MessagePage struct {
	Limit    int
	Before   *time.Time
	BeforeID *string
}

// Precedes reports whether m sorts before the page cursor.
func (p MessagePage) Precedes(m *ChatMessage) bool {
	if p.Before == nil {
		return true
	}
	if m.CreatedAt.Before(*p.Before) {
		return true
	}
	return p.BeforeID != nil && m.CreatedAt.Equal(*p.Before) && m.ID < *p.BeforeID
}
