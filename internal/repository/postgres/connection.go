package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"devmatch/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Profiles     string
	Projects     string
	Interests    string
	Matches      string
	ChatRooms    string
	ChatMessages string
}

// NewTableNames creates table names with the given prefix (dev_, test_, prod_)
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Profiles:     fmt.Sprintf("%sprofiles", prefix),
		Projects:     fmt.Sprintf("%sprojects", prefix),
		Interests:    fmt.Sprintf("%sinterests", prefix),
		Matches:      fmt.Sprintf("%smatches", prefix),
		ChatRooms:    fmt.Sprintf("%schat_rooms", prefix),
		ChatMessages: fmt.Sprintf("%schat_messages", prefix),
	}
}

// All returns every table in dependency order (parents first).
func (t *TableNames) All() []string {
	return []string{t.Profiles, t.Projects, t.Interests, t.Matches, t.ChatRooms, t.ChatMessages}
}

// PoolOptions sizes the connection pool
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// DefaultPoolOptions matches a single API instance behind a pooler.
var DefaultPoolOptions = PoolOptions{MaxConns: 25, MinConns: 5}

// CreateConnectionPool creates a pgx pool and pings the database.
//
// Port 6543 is the Supabase transaction pooler (PgBouncer), which does not support
// prepared statements. On that port the pool switches to QueryExecModeCacheDescribe
// unless default_query_exec_mode was set explicitly in the connection string.
// Table prefixes are interpolated into SQL before it is sent, so each environment
// gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction carried by ctx, or the pool when there is none.
// Repositories use it so they join an ExecTx transaction without knowing about it.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
