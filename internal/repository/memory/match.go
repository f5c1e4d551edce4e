package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
)

type matchRepo struct{ s *Store }

func (r *matchRepo) Create(ctx context.Context, match *models.Match) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	match.User1ID, match.User2ID = models.NormalizePair(match.User1ID, match.User2ID)
	key := matchKey{match.User1ID, match.User2ID, models.ScopeKey(match.ProjectID)}
	if id, ok := s.pairs[key]; ok {
		*match = s.matches[id]
		return false, nil
	}

	_, ok1 := s.profiles[match.User1ID]
	_, ok2 := s.profiles[match.User2ID]
	if !ok1 || !ok2 || match.User1ID == match.User2ID {
		return false, &domain.ValidationError{Message: "both users and the project must exist"}
	}
	if match.ProjectID != nil {
		if _, ok := s.projects[*match.ProjectID]; !ok {
			return false, &domain.ValidationError{Message: "both users and the project must exist"}
		}
	}

	if match.Status == "" {
		match.Status = models.MatchStatusActive
	}
	match.ID = newID()
	match.ProjectID = copyProjectID(match.ProjectID)
	match.CreatedAt = stamp(match.CreatedAt)
	s.matches[match.ID] = *match
	s.pairs[key] = match.ID
	return true, nil
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
	}
	return &m, nil
}

func (r *matchRepo) GetByPair(ctx context.Context, userA, userB string, projectID *string) (*models.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u1, u2 := models.NormalizePair(userA, userB)
	id, ok := r.s.pairs[matchKey{u1, u2, models.ScopeKey(projectID)}]
	if !ok {
		return nil, fmt.Errorf("match between %s and %s: %w", u1, u2, domain.ErrNotFound)
	}
	m := r.s.matches[id]
	return &m, nil
}

func (r *matchRepo) ListSummaries(ctx context.Context, userID string) ([]models.MatchSummary, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := []models.MatchSummary{}
	for _, m := range s.matches {
		if !m.HasParticipant(userID) || m.Status == models.MatchStatusArchived {
			continue
		}
		sum := models.MatchSummary{Match: m}
		if p, ok := s.profiles[m.Counterpart(userID)]; ok {
			sum.Counterpart = p.Summary()
		} else {
			sum.Counterpart = models.ProfileSummary{ID: m.Counterpart(userID)}
		}
		if m.ProjectID != nil {
			if pr, ok := s.projects[*m.ProjectID]; ok {
				ps := pr.Summary()
				sum.Project = &ps
			}
		}
		if roomID, ok := s.roomByMat[m.ID]; ok {
			id := roomID
			sum.RoomID = &id
			msgs := s.messages[roomID]
			if n := len(msgs); n > 0 {
				last := msgs[n-1]
				sum.LastMessage = &models.MessagePreview{Content: last.Content, SenderID: last.SenderID, CreatedAt: last.CreatedAt}
			}
			for _, msg := range msgs {
				if msg.SenderID != userID && msg.ReadAt == nil {
					sum.UnreadCount++
				}
			}
		}
		summaries = append(summaries, sum)
	}

	sortNewestFirst(summaries, func(s models.MatchSummary) time.Time { return s.Match.CreatedAt })
	return summaries, nil
}

func (r *matchRepo) ListWithoutRoom(ctx context.Context, limit int) ([]models.Match, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Match{}
	for _, m := range s.matches {
		if _, ok := s.roomByMat[m.ID]; !ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
