// Package seed fills a fresh environment with demo profiles, projects, swipes and matches.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"devmatch/internal/auth"
	"devmatch/internal/domain/services"
	"devmatch/internal/service"
)

// DemoUser is one seeded person. ID is fixed unless an admin client assigns one.
type DemoUser struct {
	ID          string
	Email       string
	DisplayName string
	Headline    string
	Skills      []string
}

var DemoUsers = []DemoUser{
	{ID: "a0000000-0000-4000-8000-000000000001", Email: "ada@devmatch.local", DisplayName: "Ada", Headline: "Backend engineer, loves queues", Skills: []string{"go", "postgres", "nats"}},
	{ID: "a0000000-0000-4000-8000-000000000002", Email: "linus@devmatch.local", DisplayName: "Linus", Headline: "Systems hacker", Skills: []string{"c", "linux", "git"}},
	{ID: "a0000000-0000-4000-8000-000000000003", Email: "grace@devmatch.local", DisplayName: "Grace", Headline: "Compiler person looking for contributors", Skills: []string{"compilers", "cobol", "go"}},
	{ID: "a0000000-0000-4000-8000-000000000004", Email: "ken@devmatch.local", DisplayName: "Ken", Headline: "Frontend and tooling", Skills: []string{"typescript", "react", "wasm"}},
}

// Result counts what a seed run produced.
type Result struct {
	Profiles int
	Projects int
	Swipes   int
	Matches  int
}

// DemoSeeder seeds through the service layer, so it works with any storage backend
// and every invariant the API enforces holds for seeded data too.
type DemoSeeder struct {
	svc      *service.Services
	admin    *auth.AdminClient
	password string
	logger   *slog.Logger
}

// NewDemoSeeder creates a seeder. With a non-nil admin client, each demo user also
// gets a Supabase auth account and the profile uses that account's ID.
func NewDemoSeeder(svc *service.Services, admin *auth.AdminClient, password string, logger *slog.Logger) *DemoSeeder {
	return &DemoSeeder{svc: svc, admin: admin, password: password, logger: logger}
}

// Seed is safe to run repeatedly: swipes come back as duplicates and matches as existing.
func (s *DemoSeeder) Seed(ctx context.Context) (*Result, error) {
	res := &Result{}
	users := make([]DemoUser, len(DemoUsers))
	copy(users, DemoUsers)

	for i := range users {
		if s.admin != nil {
			id, err := s.admin.EnsureUser(ctx, users[i].Email, s.password, map[string]any{"display_name": users[i].DisplayName})
			if err != nil {
				return res, fmt.Errorf("auth user %s: %w", users[i].Email, err)
			}
			users[i].ID = id
		}
		if _, err := s.svc.Profiles.UpsertProfile(ctx, &services.UpsertProfileRequest{
			UserID:      users[i].ID,
			DisplayName: users[i].DisplayName,
			Headline:    users[i].Headline,
			Skills:      users[i].Skills,
		}); err != nil {
			return res, fmt.Errorf("profile %s: %w", users[i].DisplayName, err)
		}
		res.Profiles++
	}
	ada, linus, grace, ken := users[0], users[1], users[2], users[3]

	projectID, err := s.ensureProject(ctx, grace.ID, "Toy compiler", "A teaching compiler for a small language.", []string{"go", "compilers"})
	if err != nil {
		return res, err
	}
	res.Projects++

	swipes := []services.RecordInterestRequest{
		{ActorID: ada.ID, TargetID: linus.ID, Action: "like"},
		{ActorID: linus.ID, TargetID: ada.ID, Action: "superlike"},
		{ActorID: ken.ID, TargetID: grace.ID, ProjectID: &projectID, Action: "like"},
		{ActorID: grace.ID, TargetID: ken.ID, ProjectID: &projectID, Action: "like"},
		{ActorID: ada.ID, TargetID: ken.ID, Action: "skip"},
		{ActorID: grace.ID, TargetID: ada.ID, Action: "like"},
	}
	for i := range swipes {
		result, err := s.svc.Swipes.ProposeInterest(ctx, &swipes[i])
		if err != nil {
			return res, fmt.Errorf("swipe %s -> %s: %w", swipes[i].ActorID, swipes[i].TargetID, err)
		}
		res.Swipes++
		if result.Matched {
			if !result.AlreadyMatched {
				res.Matches++
			}
			if result.ChatRoom != nil {
				if err := s.greet(ctx, result.ChatRoom.ID, swipes[i].ActorID); err != nil {
					return res, err
				}
			}
		}
	}

	s.logger.Info("demo data seeded",
		"profiles", res.Profiles,
		"projects", res.Projects,
		"swipes", res.Swipes,
		"matches", res.Matches,
	)
	return res, nil
}

func (s *DemoSeeder) ensureProject(ctx context.Context, ownerID, title, description string, skills []string) (string, error) {
	existing, err := s.svc.Projects.ListProjects(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("list projects: %w", err)
	}
	for _, p := range existing {
		if strings.EqualFold(p.Title, title) {
			return p.ID, nil
		}
	}

	p, err := s.svc.Projects.CreateProject(ctx, &services.CreateProjectRequest{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Skills:      skills,
	})
	if err != nil {
		return "", fmt.Errorf("project %q: %w", title, err)
	}
	return p.ID, nil
}

// greet posts an opening message unless the room already has one.
func (s *DemoSeeder) greet(ctx context.Context, roomID, senderID string) error {
	history, err := s.svc.Chat.ListMessages(ctx, &services.ListMessagesRequest{RoomID: roomID, UserID: senderID, Limit: 1})
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	if len(history) > 0 {
		return nil
	}
	_, err = s.svc.Chat.SendMessage(ctx, &services.SendMessageRequest{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  "Hey! Looks like we should build something together.",
	})
	if err != nil {
		return fmt.Errorf("send greeting: %w", err)
	}
	return nil
}
