package auth

import (
	"errors"
	"log/slog"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier validates HS256 tokens signed with a shared secret.
// Supabase projects on the legacy JWT secret sign this way, and local development mints its own.
type HMACVerifier struct {
	secret []byte
	logger *slog.Logger
}

func NewHMACVerifier(secret string, logger *slog.Logger) (*HMACVerifier, error) {
	if len(secret) < 32 {
		return nil, errors.New("JWT secret must be at least 32 bytes")
	}
	return &HMACVerifier{secret: []byte(secret), logger: logger}, nil
}

func (v *HMACVerifier) VerifyToken(tokenString string) (*models.AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AuthClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AuthClaims)
	if !ok || !checkClaims(claims) {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// IssueToken signs an authenticated-role token for userID.
// Used by matchctl and tests; the API never issues tokens itself.
func (v *HMACVerifier) IssueToken(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := models.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  models.RoleAuthenticated,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *HMACVerifier) Close() error { return nil }
