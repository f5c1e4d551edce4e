package auth

import "devmatch/internal/domain/models"

// JWTVerifier validates bearer tokens.
// The middleware only depends on this, so JWKS and shared-secret verification are interchangeable.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or badly signed.
	VerifyToken(tokenString string) (*models.AuthClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}

// checkClaims applies the claim rules shared by every verifier.
func checkClaims(claims *models.AuthClaims) bool {
	return claims.Subject != "" && claims.Role == models.RoleAuthenticated && !claims.IsAnonymous
}
