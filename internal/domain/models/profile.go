package models

import "time"

// Profile is a user's public card. ID equals the authenticated user ID.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Headline    string    `json:"headline"`
	Bio         string    `json:"bio"`
	Skills      []string  `json:"skills"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Headline:    p.Headline,
		AvatarURL:   p.AvatarURL,
	}
}
