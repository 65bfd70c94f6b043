package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/okamoto/oracle-hr-api/internal/models"
	"go.uber.org/zap"
)

// EmployeeStore is the read side of the HR schema.
type EmployeeStore interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	ListEmployeesBySalaryRange(ctx context.Context, rng models.SalaryRange) ([]models.Employee, error)
	ListDepartmentEmployeeCounts(ctx context.Context) ([]models.DepartmentEmployeeCount, error)
}

// EmployeeHandler serves the protected employee listings.
type EmployeeHandler struct {
	store  EmployeeStore
	logger *zap.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(store EmployeeStore, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{store: store, logger: logger}
}

// ListHandler serves GET /employees.
func (h *EmployeeHandler) ListHandler(c echo.Context) error {
	employees, err := h.store.ListEmployees(c.Request().Context())
	if err != nil {
		return fmt.Errorf("list employees: %w", err)
	}
	return c.JSON(http.StatusOK, employees)
}

// BySalaryHandler serves GET /employees-salary. Missing bounds fall back to
// the default range; the bounds are passed to the store unchecked.
func (h *EmployeeHandler) BySalaryHandler(c echo.Context) error {
	rng := models.SalaryRange{Min: models.DefaultMinSalary, Max: models.DefaultMaxSalary}

	var err error
	if rng.Min, err = floatParam(c, "minSalary", rng.Min); err != nil {
		return err
	}
	if rng.Max, err = floatParam(c, "maxSalary", rng.Max); err != nil {
		return err
	}

	h.logger.Debug("salary range requested",
		zap.Float64("min_salary", rng.Min),
		zap.Float64("max_salary", rng.Max))

	employees, err := h.store.ListEmployeesBySalaryRange(c.Request().Context(), rng)
	if err != nil {
		return fmt.Errorf("list employees by salary: %w", err)
	}
	return c.JSON(http.StatusOK, employees)
}

// DepartmentCountsHandler serves GET /employees-by-departments.
func (h *EmployeeHandler) DepartmentCountsHandler(c echo.Context) error {
	counts, err := h.store.ListDepartmentEmployeeCounts(c.Request().Context())
	if err != nil {
		return fmt.Errorf("list department counts: %w", err)
	}
	return c.JSON(http.StatusOK, counts)
}

func floatParam(c echo.Context, name string, fallback float64) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a number").SetInternal(err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a finite number")
	}
	return v, nil
}
