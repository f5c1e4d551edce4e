// Package database opens the configured storage and exposes its repositories.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"devmatch/internal/config"
	"devmatch/internal/domain/repositories"
	"devmatch/internal/repository/memory"
	"devmatch/internal/repository/postgres"
)

// DB is one storage backend: Postgres when a DATABASE_URL is set, memory otherwise.
type DB struct {
	Interests    repositories.InterestRepository
	Matches      repositories.MatchRepository
	ChatRooms    repositories.ChatRoomRepository
	ChatMessages repositories.ChatMessageRepository
	Profiles     repositories.ProfileRepository
	Projects     repositories.ProjectRepository
	TxManager    repositories.TransactionManager

	// Pool and Tables are nil for the memory backend.
	Pool   *pgxpool.Pool
	Tables *postgres.TableNames
}

// Connect opens storage for cfg. With migrate set, the Postgres schema is created first.
func Connect(ctx context.Context, cfg *config.Config, migrate bool, logger *slog.Logger) (*DB, error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProd() {
			return nil, errors.New("DATABASE_URL is required in prod")
		}
		logger.Warn("DATABASE_URL not set, using in-memory storage; data is lost on restart")
		return FromMemory(memory.NewStore()), nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("database connected",
		"max_conns", pool.Config().MaxConns,
		"min_conns", pool.Config().MinConns,
		"table_prefix", cfg.TablePrefix,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if migrate {
		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		logger.Info("database schema ready")
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	return &DB{
		Interests:    postgres.NewInterestRepository(repoConfig),
		Matches:      postgres.NewMatchRepository(repoConfig),
		ChatRooms:    postgres.NewChatRoomRepository(repoConfig),
		ChatMessages: postgres.NewChatMessageRepository(repoConfig),
		Profiles:     postgres.NewProfileRepository(repoConfig),
		Projects:     postgres.NewProjectRepository(repoConfig),
		TxManager:    postgres.NewTransactionManager(pool, logger),
		Pool:         pool,
		Tables:       tables,
	}, nil
}

// FromMemory wraps an in-memory store.
func FromMemory(s *memory.Store) *DB {
	return &DB{
		Interests:    s.Interests(),
		Matches:      s.Matches(),
		ChatRooms:    s.ChatRooms(),
		ChatMessages: s.ChatMessages(),
		Profiles:     s.Profiles(),
		Projects:     s.Projects(),
		TxManager:    s.TransactionManager(),
	}
}

// IsPostgres reports whether the backend is Postgres.
func (db *DB) IsPostgres() bool {
	return db.Pool != nil
}

// Ping checks the database answers. The memory backend always does.
func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return nil
	}
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
