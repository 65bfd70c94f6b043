package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/okamoto/oracle-hr-api/internal/models"
	"go.uber.org/zap"
)

// NowLayout renders times as e.g. "05-March-2024 02:07 PM".
const NowLayout = "02-January-2006 03:04 PM"

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SystemHandler serves /now and /healthz.
type SystemHandler struct {
	health HealthChecker
	now    func() time.Time
	logger *zap.Logger
}

// NewSystemHandler creates the handler for /now and /healthz. A nil now uses
// the local wall clock.
func NewSystemHandler(health HealthChecker, now func() time.Time, logger *zap.Logger) *SystemHandler {
	if now == nil {
		now = time.Now
	}
	return &SystemHandler{health: health, now: now, logger: logger}
}

// NowHandler serves GET /now.
func (h *SystemHandler) NowHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.NowResponse{Now: h.now().Format(NowLayout)})
}

// HealthHandler serves GET /healthz.
func (h *SystemHandler) HealthHandler(c echo.Context) error {
	if err := h.health.HealthCheck(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}
