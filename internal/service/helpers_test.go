package service

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"devmatch/internal/config"
	"devmatch/internal/database"
	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
	"devmatch/internal/domain/services"
	"devmatch/internal/events"
	"devmatch/internal/metrics"
	"devmatch/internal/repository/memory"
)

const (
	ada   = "a0000000-0000-4000-8000-000000000001"
	linus = "a0000000-0000-4000-8000-000000000002"
	grace = "a0000000-0000-4000-8000-000000000003"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() *config.Policy {
	p := config.DefaultPolicy()
	p.Retry = config.RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
	return p
}

type testEnv struct {
	db      *database.DB
	svc     *Services
	bus     *events.LocalBus
	metrics *metrics.Metrics
}

// newTestEnv builds services over a fresh memory store with three profiles.
// wrap, if set, may replace repositories before the services are wired.
func newTestEnv(t *testing.T, policy *config.Policy, wrap func(db *database.DB)) *testEnv {
	t.Helper()
	if policy == nil {
		policy = testPolicy()
	}
	db := database.FromMemory(memory.NewStore())
	ctx := context.Background()
	for _, u := range []struct{ id, name string }{{ada, "Ada"}, {linus, "Linus"}, {grace, "Grace"}} {
		require.NoError(t, db.Profiles.Upsert(ctx, &models.Profile{ID: u.id, DisplayName: u.name}))
	}
	if wrap != nil {
		wrap(db)
	}

	bus := events.NewLocalBus()
	m := metrics.New()
	return &testEnv{
		db:      db,
		svc:     SetupServices(db, policy, bus, m, discardLogger()),
		bus:     bus,
		metrics: m,
	}
}

func (e *testEnv) swipe(t *testing.T, actor, target, action string, projectID *string) *services.SwipeResult {
	t.Helper()
	res, err := e.svc.Swipes.ProposeInterest(context.Background(), &services.RecordInterestRequest{
		ActorID:   actor,
		TargetID:  target,
		ProjectID: projectID,
		Action:    action,
	})
	require.NoError(t, err)
	return res
}

// matched creates a match with its room between a and b.
func (e *testEnv) matched(t *testing.T, a, b string) (*models.Match, *models.ChatRoom) {
	t.Helper()
	e.swipe(t, a, b, "like", nil)
	res := e.swipe(t, b, a, "like", nil)
	require.True(t, res.Matched)
	return res.Match, res.ChatRoom
}

func unavailable(op string) error {
	return &domain.UnavailableError{Op: op, Cause: context.DeadlineExceeded}
}

// flakyInterests fails FindReciprocal until failures runs out. A negative count fails forever.
type flakyInterests struct {
	repositories.InterestRepository
	failures atomic.Int32
	calls    atomic.Int32
}

func (r *flakyInterests) FindReciprocal(ctx context.Context, actorID, targetID string, projectID *string, actions []models.InterestAction) (*models.Interest, error) {
	r.calls.Add(1)
	if r.failures.Load() != 0 {
		r.failures.Add(-1)
		return nil, unavailable("find reciprocal interest")
	}
	return r.InterestRepository.FindReciprocal(ctx, actorID, targetID, projectID, actions)
}

// flakyMatches fails Create until failures runs out. A negative count fails forever.
type flakyMatches struct {
	repositories.MatchRepository
	failures atomic.Int32
	calls    atomic.Int32
}

func (r *flakyMatches) Create(ctx context.Context, match *models.Match) (bool, error) {
	r.calls.Add(1)
	if r.failures.Load() != 0 {
		r.failures.Add(-1)
		return false, unavailable("create match")
	}
	return r.MatchRepository.Create(ctx, match)
}

// flakyRooms fails Create until failures runs out. A negative count fails forever.
type flakyRooms struct {
	repositories.ChatRoomRepository
	failures atomic.Int32
}

func (r *flakyRooms) Create(ctx context.Context, room *models.ChatRoom) (bool, error) {
	if r.failures.Load() != 0 {
		r.failures.Add(-1)
		return false, unavailable("create chat room")
	}
	return r.ChatRoomRepository.Create(ctx, room)
}

// counterValue sums every series of a counter family in the env's registry.
func counterValue(t *testing.T, e *testEnv, name string) float64 {
	t.Helper()
	families, err := e.metrics.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
