package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const tokenIssuer = "tasknest"

// Claims holds the verified identity carried by a session token
type Claims struct {
	UserID   uuid.UUID
	Username string
}

// TokenService issues and verifies HS256-signed session tokens
type TokenService struct {
	key []byte
	ttl time.Duration
}

// NewTokenService creates a token service with the given signing key and token lifetime
func NewTokenService(signingKey string, ttl time.Duration) (*TokenService, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key must not be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{key: []byte(signingKey), ttl: ttl}, nil
}

// Issue builds and signs a token for the given user
func (s *TokenService) Issue(userID uuid.UUID, username string) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(tokenIssuer).
		Subject(userID.String()).
		Claim("username", username).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify parses and validates a token and extracts its claims
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	userID, err := uuid.Parse(token.Subject())
	if err != nil {
		return nil, fmt.Errorf("token subject is not a user id: %w", err)
	}

	claims := &Claims{UserID: userID}
	if username, ok := token.Get("username"); ok {
		if s, ok := username.(string); ok {
			claims.Username = s
		}
	}

	return claims, nil
}
