// Package memory is an in-process implementation of the repository interfaces.
// It enforces the same uniqueness keys as the Postgres schema and backs the
// server when no DATABASE_URL is configured, as well as the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
)

type interestKey struct {
	actor, target, scope string
}

type matchKey struct {
	user1, user2, scope string
}

// Store holds every table. The repositories returned by its accessors share it.
type Store struct {
	mu sync.RWMutex

	profiles  map[string]models.Profile
	projects  map[string]models.Project
	interests map[interestKey]models.Interest
	matches   map[string]models.Match
	pairs     map[matchKey]string
	rooms     map[string]models.ChatRoom
	roomByMat map[string]string
	messages  map[string][]models.ChatMessage

	txMu sync.Mutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		profiles:  make(map[string]models.Profile),
		projects:  make(map[string]models.Project),
		interests: make(map[interestKey]models.Interest),
		matches:   make(map[string]models.Match),
		pairs:     make(map[matchKey]string),
		rooms:     make(map[string]models.ChatRoom),
		roomByMat: make(map[string]string),
		messages:  make(map[string][]models.ChatMessage),
	}
}

func (s *Store) Interests() repositories.InterestRepository { return &interestRepo{s} }
func (s *Store) Matches() repositories.MatchRepository { return &matchRepo{s} }
func (s *Store) ChatRooms() repositories.ChatRoomRepository { return &roomRepo{s} }
func (s *Store) ChatMessages() repositories.ChatMessageRepository { return &messageRepo{s} }
func (s *Store) Profiles() repositories.ProfileRepository { return &profileRepo{s} }
func (s *Store) Projects() repositories.ProjectRepository { return &projectRepo{s} }
func (s *Store) TransactionManager() repositories.TransactionManager { return &txManager{s} }

type txCtxKey struct{}

// txManager serializes units of work. Writes are not rolled back on error.
type txManager struct{ s *Store }

func (m *txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if ctx.Value(txCtxKey{}) != nil {
		return fn(ctx)
	}
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()
	return fn(context.WithValue(ctx, txCtxKey{}, true))
}

func newID() string {
	return uuid.NewString()
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyProjectID(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	v := *p
	return &v
}

func sortNewestFirst[T any](items []T, at func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]).After(at(items[j])) })
}
