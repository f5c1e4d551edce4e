package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

// ReswipeMode decides what happens when an actor swipes the same target twice in a scope.
type ReswipeMode string

const (
	ReswipeKeep    ReswipeMode = "keep"
	ReswipeReplace ReswipeMode = "replace"
)

// Policy tunes matching behavior without a redeploy.
type Policy struct {
	Reciprocity ReciprocityPolicy `yaml:"reciprocity"`
	Reswipe     ReswipeMode       `yaml:"reswipe"`
	Retry       RetryPolicy       `yaml:"retry"`
	RateLimits  RateLimitPolicy   `yaml:"rate_limits"`
	Messages    MessagePolicy     `yaml:"messages"`
}

type ReciprocityPolicy struct {
	SuperlikeSatisfiesLike bool `yaml:"superlike_satisfies_like"`
}

// RetryPolicy bounds retries of transient storage failures.
type RetryPolicy struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// RateLimitPolicy is per user per window. Zero disables a limit.
type RateLimitPolicy struct {
	Window   time.Duration `yaml:"window"`
	Swipes   int           `yaml:"swipes"`
	Messages int           `yaml:"messages"`
}

type MessagePolicy struct {
	MaxLength       int `yaml:"max_length"`
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() *Policy {
	var p Policy
	if err := yaml.Unmarshal(defaultPolicy, &p); err != nil {
		panic(fmt.Sprintf("embedded policy.yaml: %v", err))
	}
	return &p
}

// LoadPolicy starts from the embedded defaults and overlays the file at path, if any.
func LoadPolicy(path string) (*Policy, error) {
	p := DefaultPolicy()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read policy file: %w", err)
		}
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parse policy file %s: %w", path, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching policy: %w", err)
	}
	return p, nil
}

func (p *Policy) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Reswipe, validation.Required, validation.In(ReswipeKeep, ReswipeReplace)),
		validation.Field(&p.Retry),
		validation.Field(&p.RateLimits),
		validation.Field(&p.Messages),
	)
}

func (r RetryPolicy) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxAttempts, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&r.InitialInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&r.MaxInterval, validation.Required, validation.Min(r.InitialInterval)),
	)
}

func (r RateLimitPolicy) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Window, validation.Required, validation.Min(time.Second)),
		validation.Field(&r.Swipes, validation.Min(0)),
		validation.Field(&r.Messages, validation.Min(0)),
	)
}

func (m MessagePolicy) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.MaxLength, validation.Required, validation.Min(1)),
		validation.Field(&m.DefaultPageSize, validation.Required, validation.Min(1), validation.Max(m.MaxPageSize)),
		validation.Field(&m.MaxPageSize, validation.Required, validation.Min(1)),
	)
}
