package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/godror/godror"
	"github.com/okamoto/oracle-hr-api/internal/mapper"
	"github.com/okamoto/oracle-hr-api/internal/models"
	"go.uber.org/zap"
)

//go:embed sql/queries/list_employees.sql
var listEmployeesQuery string

//go:embed sql/queries/call_employees_by_salary_range.sql
var salaryRangeCall string

//go:embed sql/queries/list_department_employee_counts.sql
var listDepartmentCountsQuery string

// ConnProvider hands out scoped connections. *database.OracleDB satisfies it.
type ConnProvider interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// CursorOpener runs the salary range routine on conn and returns its result
// cursor as rows. The returned closer releases the cursor and must be closed
// after rows.
type CursorOpener func(ctx context.Context, conn *sql.Conn, rng models.SalaryRange) (*sql.Rows, io.Closer, error)

// Option customizes an EmployeeRepository.
type Option func(*EmployeeRepository)

// WithCursorOpener replaces the godror ref cursor call.
func WithCursorOpener(open CursorOpener) Option {
	return func(r *EmployeeRepository) {
		r.openCursor = open
	}
}

// EmployeeRepository runs the HR queries. Every call checks out its own
// connection and returns it on all exit paths.
type EmployeeRepository struct {
	db         ConnProvider
	openCursor CursorOpener
	logger     *zap.Logger
}

// NewEmployeeRepository validates the embedded queries against their column
// bindings and returns a repository.
func NewEmployeeRepository(db ConnProvider, logger *zap.Logger, opts ...Option) (*EmployeeRepository, error) {
	if err := mapper.CheckQuery(listEmployeesQuery, mapper.ListingColumns); err != nil {
		return nil, fmt.Errorf("employee listing query: %w", err)
	}
	if err := mapper.CheckQuery(listDepartmentCountsQuery, mapper.DepartmentCountColumns); err != nil {
		return nil, fmt.Errorf("department count query: %w", err)
	}

	r := &EmployeeRepository{
		db:         db,
		openCursor: openSalaryRangeCursor,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ListEmployees returns every employee with department and manager names.
// Order is whatever the database returns.
func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	start := time.Now()

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, listEmployeesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees, err := collect(rows, mapper.MapListingEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	r.logger.Debug("listed employees",
		zap.Int("count", len(employees)),
		zap.Duration("duration", time.Since(start)))
	return employees, nil
}

// ListEmployeesBySalaryRange calls HR.GetEmployeesBySalaryRange. Whether the
// bounds are inclusive is decided by the procedure.
func (r *EmployeeRepository) ListEmployeesBySalaryRange(ctx context.Context, rng models.SalaryRange) ([]models.Employee, error) {
	start := time.Now()

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by salary: %w", err)
	}
	defer conn.Close()

	rows, cursor, err := r.openCursor(ctx, conn, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by salary: %w", err)
	}
	defer cursor.Close()
	defer rows.Close()

	employees, err := collect(rows, mapper.MapSalaryRangeEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by salary: %w", err)
	}

	r.logger.Debug("listed employees by salary",
		zap.Float64("min_salary", rng.Min),
		zap.Float64("max_salary", rng.Max),
		zap.Int("count", len(employees)),
		zap.Duration("duration", time.Since(start)))
	return employees, nil
}

// ListDepartmentEmployeeCounts returns one row per department.
func (r *EmployeeRepository) ListDepartmentEmployeeCounts(ctx context.Context) ([]models.DepartmentEmployeeCount, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list department counts: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, listDepartmentCountsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list department counts: %w", err)
	}
	defer rows.Close()

	counts, err := collect(rows, mapper.MapDepartmentCount)
	if err != nil {
		return nil, fmt.Errorf("failed to list department counts: %w", err)
	}

	r.logger.Debug("listed department counts", zap.Int("count", len(counts)))
	return counts, nil
}

// collect maps every row or none: an error discards what was already read.
func collect[T any](rows *sql.Rows, mapRow func(mapper.Scanner) (T, error)) ([]T, error) {
	out := make([]T, 0)
	for rows.Next() {
		v, err := mapRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func openSalaryRangeCursor(ctx context.Context, conn *sql.Conn, rng models.SalaryRange) (*sql.Rows, io.Closer, error) {
	var cursor driver.Rows
	if _, err := conn.ExecContext(ctx, salaryRangeCall,
		salaryBind(rng.Min), salaryBind(rng.Max), sql.Out{Dest: &cursor}); err != nil {
		return nil, nil, fmt.Errorf("failed to call salary range procedure: %w", err)
	}

	rows, err := godror.WrapRows(ctx, conn, cursor)
	if err != nil {
		cursor.Close()
		return nil, nil, fmt.Errorf("failed to read salary range cursor: %w", err)
	}
	return rows, cursor, nil
}

// salaryBind sends a bound as an Oracle NUMBER literal so 2999.99 is compared
// as written, not as its nearest binary double.
func salaryBind(v float64) godror.Number {
	return godror.Number(strconv.FormatFloat(v, 'f', -1, 64))
}
