package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
)

type interestRepo struct{ s *Store }

func (r *interestRepo) Upsert(ctx context.Context, interest *models.Interest, replace bool) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if interest.ActorID == interest.TargetID {
		return &domain.ValidationError{Message: "invalid interest"}
	}
	_, actorOK := s.profiles[interest.ActorID]
	_, targetOK := s.profiles[interest.TargetID]
	projectOK := true
	if interest.ProjectID != nil {
		_, projectOK = s.projects[*interest.ProjectID]
	}
	if !actorOK || !targetOK || !projectOK {
		return &domain.ValidationError{Message: "actor, target and project must exist"}
	}

	key := interestKey{interest.ActorID, interest.TargetID, models.ScopeKey(interest.ProjectID)}
	if existing, ok := s.interests[key]; ok {
		if !replace {
			*interest = existing
			return &domain.ConflictError{
				Message:      fmt.Sprintf("interest in %s already recorded", existing.TargetID),
				ResourceType: "interest",
				ResourceID:   existing.ID,
			}
		}
		existing.Action = interest.Action
		existing.UpdatedAt = stamp(interest.UpdatedAt)
		s.interests[key] = existing
		*interest = existing
		return nil
	}

	interest.ID = newID()
	interest.ProjectID = copyProjectID(interest.ProjectID)
	interest.CreatedAt = stamp(interest.CreatedAt)
	interest.UpdatedAt = stamp(interest.UpdatedAt)
	s.interests[key] = *interest
	return nil
}

func (r *interestRepo) Get(ctx context.Context, actorID, targetID string, projectID *string) (*models.Interest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.interests[interestKey{actorID, targetID, models.ScopeKey(projectID)}]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r *interestRepo) FindReciprocal(ctx context.Context, actorID, targetID string, projectID *string, actions []models.InterestAction) (*models.Interest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.interests[interestKey{targetID, actorID, models.ScopeKey(projectID)}]
	if !ok || !slices.Contains(actions, i.Action) {
		return nil, nil
	}
	return &i, nil
}

func (r *interestRepo) ListUnmatchedMutual(ctx context.Context, userID *string, sameActionOnly bool, limit int) ([]models.MutualInterest, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := []models.MutualInterest{}
	for key, out := range s.interests {
		if !out.Action.IsPositive() {
			continue
		}
		if userID != nil {
			if out.ActorID != *userID {
				continue
			}
		} else if u1, _ := models.NormalizePair(out.ActorID, out.TargetID); u1 != out.ActorID {
			continue
		}
		in, ok := s.interests[interestKey{key.target, key.actor, key.scope}]
		if !ok || !in.Action.IsPositive() || (sameActionOnly && in.Action != out.Action) {
			continue
		}
		u1, u2 := models.NormalizePair(out.ActorID, out.TargetID)
		if _, matched := s.pairs[matchKey{u1, u2, key.scope}]; matched {
			continue
		}
		pending = append(pending, models.MutualInterest{Outgoing: out, Incoming: in})
	}

	sort.Slice(pending, func(i, j int) bool {
		return latest(pending[i]).Before(latest(pending[j]))
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func latest(m models.MutualInterest) time.Time {
	if m.Incoming.UpdatedAt.After(m.Outgoing.UpdatedAt) {
		return m.Incoming.UpdatedAt
	}
	return m.Outgoing.UpdatedAt
}
