package memory

import (
	"context"
	"fmt"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
)

type roomRepo struct{ s *Store }

func (r *roomRepo) Create(ctx context.Context, room *models.ChatRoom) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[room.MatchID]; !ok {
		return false, fmt.Errorf("match %s: %w", room.MatchID, domain.ErrNotFound)
	}
	if id, ok := s.roomByMat[room.MatchID]; ok {
		*room = s.rooms[id]
		return false, nil
	}

	room.ID = newID()
	room.CreatedAt = stamp(room.CreatedAt)
	s.rooms[room.ID] = *room
	s.roomByMat[room.MatchID] = room.ID
	return true, nil
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("chat room %s: %w", id, domain.ErrNotFound)
	}
	return &room, nil
}

func (r *roomRepo) GetByMatchID(ctx context.Context, matchID string) (*models.ChatRoom, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.roomByMat[matchID]
	if !ok {
		return nil, fmt.Errorf("chat room for match %s: %w", matchID, domain.ErrNotFound)
	}
	room := r.s.rooms[id]
	return &room, nil
}

type messageRepo struct{ s *Store }

func (r *messageRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[msg.RoomID]; !ok {
		return fmt.Errorf("chat room %s: %w", msg.RoomID, domain.ErrNotFound)
	}
	if msg.Content == "" {
		return &domain.ValidationError{Message: "message content is required"}
	}

	msg.ID = newID()
	msg.CreatedAt = stamp(msg.CreatedAt)
	msg.ReadAt = nil
	// Keep the log ordered by (created_at, id) even if callers stamp out of order.
	msgs := s.messages[msg.RoomID]
	i := len(msgs)
	for i > 0 && sortsAfter(&msgs[i-1], msg) {
		i--
	}
	msgs = append(msgs, models.ChatMessage{})
	copy(msgs[i+1:], msgs[i:])
	msgs[i] = *msg
	s.messages[msg.RoomID] = msgs
	return nil
}

func (r *messageRepo) List(ctx context.Context, roomID string, page models.MessagePage) ([]models.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	msgs := r.s.messages[roomID]
	end := len(msgs)
	for end > 0 && !page.Precedes(&msgs[end-1]) {
		end--
	}
	start := 0
	if page.Limit > 0 && end-page.Limit > 0 {
		start = end - page.Limit
	}

	out := make([]models.ChatMessage, end-start)
	copy(out, msgs[start:end])
	return out, nil
}

func (r *messageRepo) MarkRead(ctx context.Context, roomID, readerID string, at time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	msgs := r.s.messages[roomID]
	n := 0
	for i := range msgs {
		if msgs[i].SenderID != readerID && msgs[i].ReadAt == nil {
			t := at
			msgs[i].ReadAt = &t
			n++
		}
	}
	return n, nil
}

func sortsAfter(a, b *models.ChatMessage) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
