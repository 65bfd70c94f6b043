package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/okamoto/oracle-hr-api/internal/models"
	"go.uber.org/zap"
)

const principalKey = "auth.principal"

// TokenVerifier recovers an identity from a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (models.Principal, error)
}

// Gate turns a verifier into per-route echo middleware.
type Gate struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewGate creates a new authorization gate
func NewGate(verifier TokenVerifier, logger *zap.Logger) *Gate {
	return &Gate{verifier: verifier, logger: logger}
}

// Require returns middleware that admits only requests carrying a valid
// bearer token whose role satisfies policy. Authentication failures are 401,
// role mismatches 403.
func (g *Gate) Require(policy Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c)
			}

			principal, err := g.verifier.Verify(raw)
			if err != nil {
				g.logger.Debug("token rejected",
					zap.String("path", c.Path()),
					zap.Error(err))
				return unauthorized(c)
			}

			if !policy.Allows(principal.Role) {
				g.logger.Info("role not permitted",
					zap.String("username", principal.Username),
					zap.String("role", principal.Role),
					zap.Stringer("policy", policy),
					zap.String("path", c.Path()))
				return echo.ErrForbidden
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// PrincipalFrom returns the identity stored by the gate.
func PrincipalFrom(c echo.Context) (models.Principal, bool) {
	p, ok := c.Get(principalKey).(models.Principal)
	return p, ok
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
