package memory

import (
	"context"
	"fmt"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
)

type profileRepo struct{ s *Store }

func (r *profileRepo) Upsert(ctx context.Context, profile *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	profile.Skills = copyStrings(profile.Skills)
	profile.UpdatedAt = stamp(profile.UpdatedAt)
	if existing, ok := r.s.profiles[profile.ID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = stamp(profile.CreatedAt)
	}
	r.s.profiles[profile.ID] = *profile
	return nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	p.Skills = copyStrings(p.Skills)
	return &p, nil
}

func (r *profileRepo) ListUnswiped(ctx context.Context, actorID string, projectID *string, limit int) ([]models.Profile, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	scope := models.ScopeKey(projectID)
	out := []models.Profile{}
	for id, p := range s.profiles {
		if id == actorID {
			continue
		}
		if _, swiped := s.interests[interestKey{actorID, id, scope}]; swiped {
			continue
		}
		p.Skills = copyStrings(p.Skills)
		out = append(out, p)
	}
	sortNewestFirst(out, func(p models.Profile) time.Time { return p.UpdatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
