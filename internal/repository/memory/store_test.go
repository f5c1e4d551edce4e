package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
)

const (
	alice = "a1000000-0000-4000-8000-000000000001"
	bob   = "b2000000-0000-4000-8000-000000000002"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	ctx := context.Background()
	for _, id := range []string{alice, bob} {
		require.NoError(t, s.Profiles().Upsert(ctx, &models.Profile{ID: id, DisplayName: id[:2]}))
	}
	return s
}

func TestInterestUpsertKeepsFirst(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	first := &models.Interest{ActorID: alice, TargetID: bob, Action: models.ActionLike}
	require.NoError(t, s.Interests().Upsert(ctx, first, false))

	again := &models.Interest{ActorID: alice, TargetID: bob, Action: models.ActionSkip}
	err := s.Interests().Upsert(ctx, again, false)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.ActionLike, again.Action)

	replaced := &models.Interest{ActorID: alice, TargetID: bob, Action: models.ActionSkip}
	require.NoError(t, s.Interests().Upsert(ctx, replaced, true))
	assert.Equal(t, first.ID, replaced.ID)
	assert.Equal(t, models.ActionSkip, replaced.Action)
}

func TestInterestScopesAreIndependent(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	project := &models.Project{OwnerID: bob, Title: "p"}
	require.NoError(t, s.Projects().Create(ctx, project))

	require.NoError(t, s.Interests().Upsert(ctx, &models.Interest{ActorID: alice, TargetID: bob, Action: models.ActionLike}, false))
	require.NoError(t, s.Interests().Upsert(ctx, &models.Interest{ActorID: alice, TargetID: bob, ProjectID: &project.ID, Action: models.ActionLike}, false))

	got, err := s.Interests().Get(ctx, alice, bob, &project.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, project.ID, *got.ProjectID)
}

func TestInterestRequiresExistingParties(t *testing.T) {
	s := newSeededStore(t)
	err := s.Interests().Upsert(context.Background(), &models.Interest{
		ActorID: alice, TargetID: "c3000000-0000-4000-8000-000000000003", Action: models.ActionLike,
	}, false)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFindReciprocalFiltersActions(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	require.NoError(t, s.Interests().Upsert(ctx, &models.Interest{ActorID: bob, TargetID: alice, Action: models.ActionSkip}, false))

	got, err := s.Interests().FindReciprocal(ctx, alice, bob, nil, []models.InterestAction{models.ActionLike, models.ActionSuperlike})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Interests().FindReciprocal(ctx, alice, bob, nil, []models.InterestAction{models.ActionSkip})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, bob, got.ActorID)
}

func TestMatchCreateIsOrderIndependent(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	m1 := &models.Match{User1ID: bob, User2ID: alice}
	created, err := s.Matches().Create(ctx, m1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, alice, m1.User1ID)

	m2 := &models.Match{User1ID: alice, User2ID: bob}
	created, err = s.Matches().Create(ctx, m2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m1.ID, m2.ID)
}

func TestConcurrentMatchCreateYieldsOne(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]bool{}
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := &models.Match{User1ID: alice, User2ID: bob}
			if i%2 == 0 {
				m.User1ID, m.User2ID = bob, alice
			}
			c, err := s.Matches().Create(ctx, m)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			ids[m.ID] = true
			if c {
				created++
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)
}

func TestChatRoomOnePerMatch(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	m := &models.Match{User1ID: alice, User2ID: bob}
	_, err := s.Matches().Create(ctx, m)
	require.NoError(t, err)

	r1 := &models.ChatRoom{MatchID: m.ID}
	created, err := s.ChatRooms().Create(ctx, r1)
	require.NoError(t, err)
	assert.True(t, created)

	r2 := &models.ChatRoom{MatchID: m.ID}
	created, err = s.ChatRooms().Create(ctx, r2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, r1.ID, r2.ID)

	_, err = s.ChatRooms().Create(ctx, &models.ChatRoom{MatchID: "d4000000-0000-4000-8000-000000000004"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	without, err := s.Matches().ListWithoutRoom(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, without)
}

func TestMessagesPageAndMarkRead(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	m := &models.Match{User1ID: alice, User2ID: bob}
	_, err := s.Matches().Create(ctx, m)
	require.NoError(t, err)
	room := &models.ChatRoom{MatchID: m.ID}
	_, err = s.ChatRooms().Create(ctx, room)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, sender := range []string{alice, bob, alice, bob, alice} {
		msg := &models.ChatMessage{RoomID: room.ID, SenderID: sender, Content: "m", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.ChatMessages().Create(ctx, msg))
	}

	page, err := s.ChatMessages().List(ctx, room.ID, models.MessagePage{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].CreatedAt.Before(page[1].CreatedAt))
	assert.Equal(t, base.Add(4*time.Minute), page[1].CreatedAt)

	older, err := s.ChatMessages().List(ctx, room.ID, models.MessagePage{Limit: 10, Before: &page[0].CreatedAt})
	require.NoError(t, err)
	assert.Len(t, older, 3)

	n, err := s.ChatMessages().MarkRead(ctx, room.ID, bob, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.ChatMessages().MarkRead(ctx, room.ID, bob, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	summaries, err := s.Matches().ListSummaries(ctx, alice)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].UnreadCount)
	assert.Equal(t, bob, summaries[0].Counterpart.ID)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, alice, summaries[0].LastMessage.SenderID)
}

func TestMessagesPageCursorSplitsEqualTimestamps(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	m := &models.Match{User1ID: alice, User2ID: bob}
	_, err := s.Matches().Create(ctx, m)
	require.NoError(t, err)
	room := &models.ChatRoom{MatchID: m.ID}
	_, err = s.ChatRooms().Create(ctx, room)
	require.NoError(t, err)

	at := time.Now().Add(-time.Minute)
	for range 3 {
		msg := &models.ChatMessage{RoomID: room.ID, SenderID: alice, Content: "same instant", CreatedAt: at}
		require.NoError(t, s.ChatMessages().Create(ctx, msg))
	}

	first, err := s.ChatMessages().List(ctx, room.ID, models.MessagePage{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Less(t, first[0].ID, first[1].ID)

	cursor := first[0]
	rest, err := s.ChatMessages().List(ctx, room.ID, models.MessagePage{Limit: 2, Before: &cursor.CreatedAt, BeforeID: &cursor.ID})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Less(t, rest[0].ID, cursor.ID)

	seen := map[string]bool{}
	for _, msg := range append(first, rest...) {
		seen[msg.ID] = true
	}
	assert.Len(t, seen, 3, "every message appears exactly once across pages")

	// A bare timestamp cursor cannot split the tie.
	bare, err := s.ChatMessages().List(ctx, room.ID, models.MessagePage{Limit: 2, Before: &cursor.CreatedAt})
	require.NoError(t, err)
	assert.Empty(t, bare)
}

func TestTransactionManagerNests(t *testing.T) {
	s := NewStore()
	tm := s.TransactionManager()
	sentinel := errors.New("inner")

	err := tm.ExecTx(context.Background(), func(ctx context.Context) error {
		return tm.ExecTx(ctx, func(ctx context.Context) error {
			return sentinel
		})
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestRateLimiterWindow(t *testing.T) {
	l := NewRateLimiter()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "swipe:u", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "swipe:u", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.ResetIn)

	other, err := l.Allow(ctx, "swipe:v", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute)
	d, err = l.Allow(ctx, "swipe:u", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
