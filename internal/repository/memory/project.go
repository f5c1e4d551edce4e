package memory

import (
	"context"
	"fmt"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
)

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(ctx context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[project.OwnerID]; !ok {
		return &domain.ValidationError{Message: "create your profile before adding projects"}
	}
	project.ID = newID()
	project.Skills = copyStrings(project.Skills)
	project.CreatedAt = stamp(project.CreatedAt)
	project.UpdatedAt = stamp(project.UpdatedAt)
	r.s.projects[project.ID] = *project
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	p.Skills = copyStrings(p.Skills)
	return &p, nil
}

func (r *projectRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	return r.filter(0, func(p models.Project) bool { return p.OwnerID == ownerID }), nil
}

func (r *projectRepo) ListUnswiped(ctx context.Context, actorID string, limit int) ([]models.Project, error) {
	return r.filter(limit, func(p models.Project) bool {
		if p.OwnerID == actorID {
			return false
		}
		_, swiped := r.s.interests[interestKey{actorID, p.OwnerID, p.ID}]
		return !swiped
	}), nil
}

func (r *projectRepo) filter(limit int, keep func(models.Project) bool) []models.Project {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Project{}
	for _, p := range r.s.projects {
		if keep(p) {
			p.Skills = copyStrings(p.Skills)
			out = append(out, p)
		}
	}
	sortNewestFirst(out, func(p models.Project) time.Time { return p.CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
