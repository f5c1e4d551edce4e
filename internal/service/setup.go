package service

import (
	"log/slog"

	"devmatch/internal/config"
	"devmatch/internal/database"
	"devmatch/internal/domain/services"
	"devmatch/internal/events"
	"devmatch/internal/metrics"
	serviceAuth "devmatch/internal/service/auth"
)

// Services holds every domain service
type Services struct {
	Swipes   services.SwipeService
	Matches  services.MatchService
	Chat     services.ChatService
	Profiles services.ProfileService
	Projects services.ProjectService
}

// SetupServices wires the services over one storage backend.
// publisher and m may be nil.
func SetupServices(
	db *database.DB,
	policy *config.Policy,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Services {
	retrier := NewRetrier(policy.Retry, m, logger)
	authorizer := serviceAuth.NewParticipantAuthorizer(db.Matches, db.ChatRooms)

	matchService := NewMatchService(
		db.Interests,
		db.Matches,
		db.ChatRooms,
		db.TxManager,
		authorizer,
		publisher,
		policy.Reciprocity,
		retrier,
		m,
		logger,
	)

	return &Services{
		Swipes: NewSwipeService(
			db.Interests,
			db.Profiles,
			db.Projects,
			matchService,
			policy,
			retrier,
			m,
			logger,
		),
		Matches: matchService,
		Chat: NewChatService(
			db.ChatRooms,
			db.ChatMessages,
			db.Matches,
			authorizer,
			publisher,
			policy.Messages,
			retrier,
			m,
			logger,
		),
		Profiles: NewProfileService(db.Profiles, db.Projects, logger),
		Projects: NewProjectService(db.Projects, logger),
	}
}
