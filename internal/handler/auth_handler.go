package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/okamoto/oracle-hr-api/internal/auth"
	"github.com/okamoto/oracle-hr-api/internal/models"
	"go.uber.org/zap"
)

// Response messages for POST /seed-user.
const (
	MsgUserSeeded = "User seeded."
	MsgUserExists = "User already exists."
)

// CredentialService seeds users and exchanges credentials for tokens.
type CredentialService interface {
	Seed(username, password, role string) error
	Login(username, password string) (models.Token, error)
}

// AuthHandler serves the public seed and login endpoints.
type AuthHandler struct {
	creds  CredentialService
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(creds CredentialService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{creds: creds, logger: logger}
}

// SeedUserHandler serves POST /seed-user.
func (h *AuthHandler) SeedUserHandler(c echo.Context) error {
	var req models.SeedUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}

	err := h.creds.Seed(req.Username, req.Password, req.Role)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, MsgUserSeeded)
	case errors.Is(err, auth.ErrUserExists):
		return echo.NewHTTPError(http.StatusBadRequest, MsgUserExists)
	case errors.Is(err, auth.ErrMissingCredentials):
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required.")
	default:
		return fmt.Errorf("seed user: %w", err)
	}
}

// LoginHandler serves POST /login. Credentials come from the query string;
// the JSON body is only read for whatever the query leaves out.
func (h *AuthHandler) LoginHandler(c echo.Context) error {
	req := models.LoginRequest{
		Username: c.QueryParam("username"),
		Password: c.QueryParam("password"),
	}
	if req.Username == "" || req.Password == "" {
		var body models.LoginRequest
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
		}
		if req.Username == "" {
			req.Username = body.Username
		}
		if req.Password == "" {
			req.Password = body.Password
		}
	}

	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required.")
	}

	token, err := h.creds.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	return c.JSON(http.StatusOK, models.LoginResponse{Token: token.Value})
}
