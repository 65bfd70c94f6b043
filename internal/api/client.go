package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okamoto/oracle-hr-api/internal/models"
	"go.uber.org/zap"
)

// Config holds HR API client settings
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxIdleConns    int
	TLSInsecureSkip bool
	// PEM bundle trusted in addition to the system roots
	CACertFile string
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HR API returned status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client talks to the HR API. After Login it sends the issued token on every
// request; it is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a new HR API client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}

	tlsCfg, err := tlsConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdle,
		MaxIdleConnsPerHost: maxIdle,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     tlsCfg,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}, nil
}

// SetToken sets the bearer token sent on protected calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SeedUser registers a user and returns the server's message.
func (c *Client) SeedUser(ctx context.Context, req models.SeedUserRequest) (string, error) {
	var msg string
	if err := c.do(ctx, http.MethodPost, "/seed-user", nil, req, &msg); err != nil {
		return "", err
	}
	return msg, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	q := url.Values{"username": {username}, "password": {password}}

	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", q, nil, &resp); err != nil {
		return "", err
	}

	c.SetToken(resp.Token)
	return resp.Token, nil
}

// Now returns the server's formatted local time.
func (c *Client) Now(ctx context.Context) (string, error) {
	var resp models.NowResponse
	if err := c.do(ctx, http.MethodGet, "/now", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Now, nil
}

// Employees lists every employee.
func (c *Client) Employees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := c.do(ctx, http.MethodGet, "/employees", nil, nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// EmployeesBySalary lists employees in a salary range. A nil bound lets the
// server apply its default.
func (c *Client) EmployeesBySalary(ctx context.Context, minSalary, maxSalary *float64) ([]models.Employee, error) {
	q := url.Values{}
	if minSalary != nil {
		q.Set("minSalary", strconv.FormatFloat(*minSalary, 'f', -1, 64))
	}
	if maxSalary != nil {
		q.Set("maxSalary", strconv.FormatFloat(*maxSalary, 'f', -1, 64))
	}

	var employees []models.Employee
	if err := c.do(ctx, http.MethodGet, "/employees-salary", q, nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// DepartmentCounts returns head counts per department.
func (c *Client) DepartmentCounts(ctx context.Context) ([]models.DepartmentEmployeeCount, error) {
	var counts []models.DepartmentEmployeeCount
	if err := c.do(ctx, http.MethodGet, "/employees-by-departments", nil, nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// Health checks the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var resp models.HealthResponse
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, &resp)
}

// Close closes the API client and releases resources
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	c.logger.Debug("HR API client closed")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "oracle-hr-api-client/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("HR API request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(startTime)))

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(responseBody)}
	}

	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
