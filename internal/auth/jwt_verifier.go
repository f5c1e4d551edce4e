package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSVerifier implements JWTVerifier using the public keys published by Supabase Auth.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from a JWKS endpoint.
// keyfunc caches the keys and refreshes them in the background until Close.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{
		jwks:   jwks,
		cancel: cancel,
		logger: logger,
	}, nil
}

// VerifyToken validates a JWT token and extracts its claims.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.AuthClaims, error) {
	// Prevent algorithm confusion attacks - allow only RS256 or ES256
	token, err := jwt.ParseWithClaims(tokenString, &models.AuthClaims{}, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AuthClaims)
	if !ok {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if !checkClaims(claims) {
		v.logger.Debug("token has invalid claims",
			"role", claims.Role,
			"user_id", claims.Subject,
			"anonymous", claims.IsAnonymous,
		)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the background key refresh.
func (v *JWKSVerifier) Close() error {
	v.cancel()
	v.logger.Info("JWT verifier closed")
	return nil
}
