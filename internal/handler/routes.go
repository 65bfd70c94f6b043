package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/okamoto/oracle-hr-api/internal/auth"
)

// Route policies.
var (
	authenticated = auth.Policy{}
	staffOnly     = auth.MustParsePolicy(auth.PolicyManagerOnly + "," + auth.PolicyAdminOnly)
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Employees *EmployeeHandler
	Auth      *AuthHandler
	System    *SystemHandler
}

// RegisterRoutes mounts the public and role-gated endpoints on e.
func RegisterRoutes(e *echo.Echo, gate *auth.Gate, h Handlers) {
	e.GET("/now", h.System.NowHandler)
	e.GET("/healthz", h.System.HealthHandler)
	e.POST("/seed-user", h.Auth.SeedUserHandler)
	e.POST("/login", h.Auth.LoginHandler)

	e.GET("/employees", h.Employees.ListHandler, gate.Require(authenticated))
	e.GET("/employees-salary", h.Employees.BySalaryHandler, gate.Require(staffOnly))
	e.GET("/employees-by-departments", h.Employees.DepartmentCountsHandler, gate.Require(authenticated))
}
