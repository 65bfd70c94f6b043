// Package mapper turns positional result rows into typed records.
//
// Each query shape has its own ordered column list and its own mapping
// function. The listing join and the salary-range procedure apply different
// NULL policies to the same fields; they are kept as separate functions so
// neither path silently inherits the other's defaults.
package mapper

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/okamoto/oracle-hr-api/internal/models"
)

// Scanner is satisfied by *sql.Rows and *sql.Row.
type Scanner interface {
	Scan(dest ...any) error
}

// MapListingEmployee maps one row bound by ListingColumns.
func MapListingEmployee(row Scanner) (models.Employee, error) {
	var (
		e          models.Employee
		firstName  sql.NullString
		lastName   sql.NullString
		department sql.NullString
		manager    sql.NullString
	)

	err := row.Scan(
		&e.EmployeeID,
		&firstName,
		&lastName,
		&e.JobID,
		&e.Salary,
		&department,
		&manager,
	)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to scan employee row: %w", err)
	}

	cols := ListingColumns
	e.FirstName = cols.resolveString(1, firstName)
	e.LastName = cols.resolveString(2, lastName)
	e.DepartmentName = cols.resolve(5, department)

	// Oracle concatenates a missing manager's names to a single space, which
	// slips past COALESCE.
	if strings.TrimSpace(manager.String) == "" {
		manager.Valid = false
	}
	e.ManagerName = cols.resolve(6, manager)

	return e, nil
}

// MapSalaryRangeEmployee maps one row bound by SalaryRangeColumns.
func MapSalaryRangeEmployee(row Scanner) (models.Employee, error) {
	var (
		e          models.Employee
		firstName  sql.NullString
		lastName   sql.NullString
		jobTitle   sql.NullString
		department sql.NullString
		manager    sql.NullString
		region     sql.NullString
		phone      sql.NullString
		email      sql.NullString
	)

	err := row.Scan(
		&e.EmployeeID,
		&firstName,
		&lastName,
		&e.JobID,
		&jobTitle,
		&e.Salary,
		&department,
		&manager,
		&region,
		&phone,
		&email,
	)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to scan salary range row: %w", err)
	}

	cols := SalaryRangeColumns
	e.FirstName = cols.resolveString(1, firstName)
	e.LastName = cols.resolveString(2, lastName)
	e.JobTitle = cols.resolve(4, jobTitle)
	e.DepartmentName = cols.resolve(6, department)
	e.ManagerName = cols.resolve(7, manager)
	e.RegionName = cols.resolve(8, region)
	e.PhoneNumber = cols.resolve(9, phone)
	e.Email = cols.resolve(10, email)

	return e, nil
}

// MapDepartmentCount maps one row bound by DepartmentCountColumns.
func MapDepartmentCount(row Scanner) (models.DepartmentEmployeeCount, error) {
	var d models.DepartmentEmployeeCount
	if err := row.Scan(&d.DepartmentName, &d.DepartmentID, &d.NumEmployees); err != nil {
		return models.DepartmentEmployeeCount{}, fmt.Errorf("failed to scan department count row: %w", err)
	}
	return d, nil
}

func ptr(s string) *string {
	return &s
}
