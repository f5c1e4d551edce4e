package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "dev",
			JWTSecret:   "0123456789abcdef0123456789abcdef",
			DBMaxConns:  25,
			DBMinConns:  5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "dev with secret", mutate: func(c *Config) {}},
		{name: "unknown environment", mutate: func(c *Config) { c.Environment = "staging" }, wantErr: true},
		{name: "no auth source", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "supabase instead of secret", mutate: func(c *Config) { c.JWTSecret = ""; c.SupabaseURL = "https://x.supabase.co" }},
		{name: "prod without database", mutate: func(c *Config) { c.Environment = "prod" }, wantErr: true},
		{name: "prod with database", mutate: func(c *Config) { c.Environment = "prod"; c.DatabaseURL = "postgres://db" }},
		{name: "prod short secret", mutate: func(c *Config) {
			c.Environment = "prod"
			c.DatabaseURL = "postgres://db"
			c.JWTSecret = "short"
		}, wantErr: true},
		{name: "min above max conns", mutate: func(c *Config) { c.DBMinConns = 30 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co/")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPABASE_DB_URL", "postgres://fallback")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUTO_MIGRATE", "")
	t.Setenv("TABLE_PREFIX", "")

	c := Load()
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, "https://example.supabase.co/auth/v1/.well-known/jwks.json", c.SupabaseJWKSURL)
	assert.Equal(t, "postgres://fallback", c.DatabaseURL)
	assert.Equal(t, 3, c.RedisDB)
	assert.True(t, c.AutoMigrate)
	assert.Equal(t, "test_", c.TablePrefix)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}
