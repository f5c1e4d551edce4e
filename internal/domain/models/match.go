package models

import (
	"fmt"
	"strings"
	"time"
)

// MatchStatus is the closed set of match lifecycle states.
type MatchStatus string

const (
	MatchStatusActive   MatchStatus = "active"
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusArchived MatchStatus = "archived"
)

func ParseMatchStatus(s string) (MatchStatus, error) {
	st := MatchStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case MatchStatusActive, MatchStatusPending, MatchStatusArchived:
		return st, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// Match is a mutual positive interest between two users in one scope.
// User1ID < User2ID always holds; use NormalizePair before persisting.
type Match struct {
	ID        string      `json:"id"`
	User1ID   string      `json:"user1_id"`
	User2ID   string      `json:"user2_id"`
	ProjectID *string     `json:"project_id,omitempty"`
	Status    MatchStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// NormalizePair orders two participant IDs so the match key is order independent.
func NormalizePair(a, b string) (string, string) {
	if strings.ToLower(a) > strings.ToLower(b) {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether userID is one of the two matched users.
func (m *Match) HasParticipant(userID string) bool {
	return userID != "" && (m.User1ID == userID || m.User2ID == userID)
}

// Counterpart returns the other participant, or "" if userID is not in the match.
func (m *Match) Counterpart(userID string) string {
	switch userID {
	case m.User1ID:
		return m.User2ID
	case m.User2ID:
		return m.User1ID
	}
	return ""
}

// ProfileSummary is the participant information shown in match lists.
type ProfileSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Headline    string `json:"headline,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ProjectSummary is the project information shown in match lists.
type ProjectSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	OwnerID string `json:"owner_id"`
}

// MessagePreview is the most recent message of a match's conversation.
type MessagePreview struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchSummary is the read model returned by listMatches.
type MatchSummary struct {
	Match       Match           `json:"match"`
	Counterpart ProfileSummary  `json:"counterpart"`
	Project     *ProjectSummary `json:"project,omitempty"`
	RoomID      *string         `json:"room_id,omitempty"`
	LastMessage *MessagePreview `json:"last_message,omitempty"`
	UnreadCount int             `json:"unread_count"`
}
