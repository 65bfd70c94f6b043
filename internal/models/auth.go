package models

import "time"

// Credential is a seeded user. PasswordHash is never serialized.
type Credential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// Principal is the identity recovered from a verified token.
type Principal struct {
	Username string
	Role     string
}

// Token is a signed session token with its validity window.
type Token struct {
	Value     string
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SeedUserRequest is the body of POST /seed-user.
type SeedUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest carries login credentials from the query string or body.
type LoginRequest struct {
	Username string `json:"username" query:"username"`
	Password string `json:"password" query:"password"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// NowResponse is the body of GET /now.
type NowResponse struct {
	Now string `json:"now"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
