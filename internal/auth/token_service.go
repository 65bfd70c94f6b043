// Package auth issues and verifies session tokens, stores seeded credentials
// and gates echo routes by role.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/okamoto/oracle-hr-api/internal/config"
	"github.com/okamoto/oracle-hr-api/internal/models"
)

// MinSecretLength is the shortest signing secret accepted for HS256.
const MinSecretLength = 32

var (
	// ErrInvalidSecret means the signing secret is missing or too short.
	ErrInvalidSecret = errors.New("token secret must be at least 32 bytes")
	// ErrInvalidToken covers every reason a token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

type tokenClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock sets the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service from the auth configuration
func NewTokenService(cfg config.AuthConfig, opts ...TokenOption) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrInvalidSecret
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TokenTTL)
	}

	s := &TokenService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for username carrying role
func (s *TokenService) Issue(username, role string) (models.Token, error) {
	// JWT dates have second precision; truncate so the returned window matches
	// what Verify will see.
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := tokenClaims{
		Name: username,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return models.Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return models.Token{
		Value:     signed,
		Subject:   username,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature, algorithm, issuer, audience and expiry of raw
// and returns the identity it carries. Every failure wraps ErrInvalidToken.
func (s *TokenService) Verify(raw string) (models.Principal, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Name == "" {
		return models.Principal{}, fmt.Errorf("%w: missing name claim", ErrInvalidToken)
	}

	return models.Principal{Username: claims.Name, Role: claims.Role}, nil
}
