package models

import "time"

// Project is something an owner wants engineers for. Swipes may be scoped to one.
type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{ID: p.ID, Title: p.Title, OwnerID: p.OwnerID}
}
