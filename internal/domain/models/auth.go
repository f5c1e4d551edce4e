package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims is the JWT claim set accepted by the API.
// The layout follows Supabase Auth tokens; the HMAC dev issuer mints the same shape.
type AuthClaims struct {
	jwt.RegisteredClaims
	Email       string         `json:"email,omitempty"`
	Role        string         `json:"role"` // "authenticated" or "anon"
	SessionID   string         `json:"session_id,omitempty"`
	IsAnonymous bool           `json:"is_anonymous,omitempty"`
	AppMetadata map[string]any `json:"app_metadata,omitempty"`
}

// RoleAuthenticated is the only role allowed to call the API.
const RoleAuthenticated = "authenticated"

// GetUserID returns the subject claim, which is the user ID.
func (c *AuthClaims) GetUserID() string {
	return c.Subject
}
