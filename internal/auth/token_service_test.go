package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/okamoto/oracle-hr-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:     testSecret,
		Issuer:     config.DefaultIssuer,
		Audience:   config.DefaultAudience,
		TokenTTL:   time.Hour,
		BcryptCost: 4,
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokenService(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	s, err := NewTokenService(testAuthConfig(), WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestNewTokenServiceRejectsShortSecret(t *testing.T) {
	for _, secret := range []string{"", "short", strings.Repeat("x", MinSecretLength-1)} {
		cfg := testAuthConfig()
		cfg.Secret = secret
		_, err := NewTokenService(cfg)
		assert.ErrorIs(t, err, ErrInvalidSecret)
	}
}

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 30, 15, 500, time.UTC)}
	s := newTestTokenService(t, clock)

	token, err := s.Issue("alice", "Manager")
	require.NoError(t, err)

	assert.Equal(t, "alice", token.Subject)
	assert.Equal(t, "Manager", token.Role)
	assert.Equal(t, time.Hour, token.ExpiresAt.Sub(token.IssuedAt))
	assert.NotEmpty(t, token.Value)

	principal, err := s.Verify(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, "Manager", principal.Role)
}

func TestIssuedClaims(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := newTestTokenService(t, clock)

	token, err := s.Issue("bob", "Admin")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token.Value, claims)
	require.NoError(t, err)

	assert.Equal(t, "bob", claims["name"])
	assert.Equal(t, "Admin", claims["role"])
	assert.Equal(t, "bob", claims["sub"])
	assert.Equal(t, "OracleHRApi", claims["iss"])
	assert.Equal(t, []any{"OracleHRApiUsers"}, claims["aud"])
	assert.EqualValues(t, clock.t.Add(time.Hour).Unix(), claims["exp"])
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := newTestTokenService(t, clock)

	token, err := s.Issue("alice", "Admin")
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour + time.Second)
	_, err = s.Verify(token.Value)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: now}
	s := newTestTokenService(t, clock)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return signed
	}
	valid := func() tokenClaims {
		return tokenClaims{
			Name: "alice",
			Role: "Admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				Issuer:    config.DefaultIssuer,
				Audience:  jwt.ClaimStrings{config.DefaultAudience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	wrongIssuer := valid()
	wrongIssuer.Issuer = "SomeoneElse"

	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"OtherUsers"}

	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	noName := valid()
	noName.Name = ""

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "wrong key", token: sign(jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), valid())},
		{name: "wrong algorithm", token: sign(jwt.SigningMethodHS512, []byte(testSecret), valid())},
		{name: "unsigned", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid())},
		{name: "wrong issuer", token: sign(jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer)},
		{name: "wrong audience", token: sign(jwt.SigningMethodHS256, []byte(testSecret), wrongAudience)},
		{name: "no expiry", token: sign(jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
		{name: "no name", token: sign(jwt.SigningMethodHS256, []byte(testSecret), noName)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("control", func(t *testing.T) {
		_, err := s.Verify(sign(jwt.SigningMethodHS256, []byte(testSecret), valid()))
		assert.NoError(t, err)
	})
}
