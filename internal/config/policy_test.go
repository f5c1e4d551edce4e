package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())

	assert.True(t, p.Reciprocity.SuperlikeSatisfiesLike)
	assert.Equal(t, ReswipeKeep, p.Reswipe)
	assert.Equal(t, 3, p.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, p.Retry.InitialInterval)
	assert.Equal(t, time.Minute, p.RateLimits.Window)
	assert.Equal(t, 2000, p.Messages.MaxLength)
}

func TestLoadPolicyOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reswipe: replace\nretry:\n  max_attempts: 5\n"), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, ReswipeReplace, p.Reswipe)
	assert.Equal(t, 5, p.Retry.MaxAttempts)
	// Untouched keys keep their defaults.
	assert.Equal(t, time.Second, p.Retry.MaxInterval)
	assert.Equal(t, 120, p.RateLimits.Swipes)
}

func TestLoadPolicyInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown reswipe mode", body: "reswipe: ignore\n"},
		{name: "zero attempts", body: "retry:\n  max_attempts: 0\n"},
		{name: "max interval below initial", body: "retry:\n  initial_interval: 2s\n  max_interval: 1s\n"},
		{name: "default page above max", body: "messages:\n  default_page_size: 500\n"},
		{name: "malformed yaml", body: "retry: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "policy.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := LoadPolicy(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
