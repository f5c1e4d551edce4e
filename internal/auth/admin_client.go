package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AdminClient provides access to the Supabase Admin API for user management.
// matchctl seed uses it so demo profiles have matching auth users; the API never does.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient creates a new Supabase Admin API client.
// Requires the service role key for elevated permissions.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateUserRequest is the payload for creating a new user
type CreateUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AdminUser is a user as returned by the Admin API
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type listUsersResponse struct {
	Users []AdminUser `json:"users"`
}

func (c *AdminClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// EnsureUser returns the ID of the user with email, creating a confirmed user if none exists.
func (c *AdminClient) EnsureUser(ctx context.Context, email, password string, metadata map[string]any) (string, error) {
	id, err := c.FindUserIDByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return c.CreateUser(ctx, CreateUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: metadata,
	})
}

// FindUserIDByEmail returns "" when no user has the email.
// Only the first page of users is searched, which is enough for seed data.
func (c *AdminClient) FindUserIDByEmail(ctx context.Context, email string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/admin/users", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to list users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("list users failed with status %d: %s", resp.StatusCode, string(body))
	}

	var listResp listUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return "", fmt.Errorf("failed to decode list response: %w", err)
	}

	for _, user := range listResp.Users {
		if user.Email == email {
			return user.ID, nil
		}
	}
	return "", nil
}

// CreateUser creates a user and returns its UUID.
func (c *AdminClient) CreateUser(ctx context.Context, payload CreateUserRequest) (string, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/admin/users", bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create user failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user AdminUser
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	return user.ID, nil
}
