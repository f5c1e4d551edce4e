package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	TablePrefix string

	// DatabaseURL selects Postgres storage. Empty means the in-memory store (dev only).
	DatabaseURL string
	AutoMigrate bool
	DBMaxConns  int32
	DBMinConns  int32

	// Auth: JWKS when SupabaseURL is set, otherwise HMAC with JWTSecret.
	SupabaseURL     string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	JWTSecret       string

	// SupabaseServiceKey lets matchctl seed create auth users. The server never uses it.
	SupabaseServiceKey string

	CORSOrigins string

	// Optional infrastructure. Empty disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NATSURL       string

	LogLevel    string
	LogDir      string
	LogMaxFiles int

	MatchingPolicyFile string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        env,
		TablePrefix:        getTablePrefix(env),
		DatabaseURL:        getEnv("DATABASE_URL", getEnv("SUPABASE_DB_URL", "")),
		AutoMigrate:        getEnvAsBool("AUTO_MIGRATE", env != "prod"),
		DBMaxConns:         int32(getEnvAsInt("DB_MAX_CONNS", 25)),
		DBMinConns:         int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		SupabaseURL:        supabaseURL,
		SupabaseJWKSURL:    jwksURL,
		JWTSecret:          getEnv("JWT_SECRET", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		NATSURL:            getEnv("NATS_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		LogDir:             getEnv("LOG_DIR", ""),
		LogMaxFiles:        getEnvAsInt("LOG_MAX_FILES", 10),
		MatchingPolicyFile: getEnv("MATCHING_POLICY_FILE", ""),
		RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Environment {
	case "dev", "test", "prod":
	default:
		errs = append(errs, fmt.Errorf("ENVIRONMENT must be dev, test or prod, got %q", c.Environment))
	}
	if c.SupabaseURL == "" && c.JWTSecret == "" {
		errs = append(errs, errors.New("one of SUPABASE_URL or JWT_SECRET is required"))
	}
	if c.IsProd() {
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in prod"))
		}
		if c.SupabaseURL == "" && len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in prod"))
		}
	}
	if c.DBMinConns > c.DBMaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS cannot exceed DB_MAX_CONNS"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

func getDefaultLogLevel(env string) string {
	if env == "prod" {
		return "info"
	}
	return "debug"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
