package mapper

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/okamoto/oracle-hr-api/internal/models"
)

// NullPolicy says what a mapper does when a column is NULL.
type NullPolicy int

const (
	// Required columns must never be NULL.
	Required NullPolicy = iota
	// PassNull keeps NULL as a nil field.
	PassNull
	// Substitute rewrites NULL to the column's Default.
	Substitute
)

// Column binds one result-set position to one record field.
type Column struct {
	Name    string
	Field   string
	Null    NullPolicy
	Default string
}

// Columns is an ordered positional binding; index i is result column i.
type Columns []Column

// Names returns the column names in binding order.
func (c Columns) Names() []string {
	names := make([]string, len(c))
	for i, col := range c {
		names[i] = col.Name
	}
	return names
}

// resolve applies the NULL policy of column i to a scanned value. A Required
// column never reaches here as NULL because its destination is not nullable.
func (c Columns) resolve(i int, s sql.NullString) *string {
	if s.Valid {
		return ptr(s.String)
	}
	if c[i].Null == Substitute {
		return ptr(c[i].Default)
	}
	return nil
}

// resolveString is resolve for non-pointer fields; a passed-through NULL
// becomes "".
func (c Columns) resolveString(i int, s sql.NullString) string {
	if v := c.resolve(i, s); v != nil {
		return *v
	}
	return ""
}

// ListingColumns is the shape of the employee/department/manager join.
// DEPARTMENT_NAME and MANAGER_NAME are COALESCEd by the query itself; the
// mapper applies the same defaults again and also treats a blank manager
// name as missing.
var ListingColumns = Columns{
	{Name: "EMPLOYEE_ID", Field: "EmployeeID"},
	{Name: "FIRST_NAME", Field: "FirstName", Null: Substitute},
	{Name: "LAST_NAME", Field: "LastName", Null: Substitute, Default: " "},
	{Name: "JOB_ID", Field: "JobID"},
	{Name: "SALARY", Field: "Salary"},
	{Name: "DEPARTMENT_NAME", Field: "DepartmentName", Null: Substitute, Default: models.NoDepartment},
	{Name: "MANAGER_NAME", Field: "ManagerName", Null: Substitute, Default: models.NoManager},
}

// SalaryRangeColumns is the shape of the HR.GetEmployeesBySalaryRange cursor.
var SalaryRangeColumns = Columns{
	{Name: "EMPLOYEE_ID", Field: "EmployeeID"},
	{Name: "FIRST_NAME", Field: "FirstName", Null: Substitute},
	{Name: "LAST_NAME", Field: "LastName", Null: Substitute, Default: " "},
	{Name: "JOB_ID", Field: "JobID"},
	{Name: "JOB_TITLE", Field: "JobTitle", Null: PassNull},
	{Name: "SALARY", Field: "Salary"},
	{Name: "DEPARTMENT_NAME", Field: "DepartmentName", Null: PassNull},
	{Name: "MANAGER_NAME", Field: "ManagerName", Null: Substitute, Default: models.NoManager},
	{Name: "REGION_NAME", Field: "RegionName", Null: Substitute, Default: models.NoRegion},
	{Name: "PHONE_NUMBER", Field: "PhoneNumber", Null: PassNull},
	{Name: "EMAIL", Field: "Email", Null: PassNull},
}

// DepartmentCountColumns is the shape of HR.DEPARTMENT_EMPLOYEE_COUNT_V.
var DepartmentCountColumns = Columns{
	{Name: "DEPARTMENT_NAME", Field: "DepartmentName"},
	{Name: "DEPARTMENT_ID", Field: "DepartmentID"},
	{Name: "NUM_EMPLOYEES", Field: "NumEmployees"},
}

// CheckQuery verifies that every column name occurs in the select list of
// query, in binding order. It catches a reordered or missing select-list
// entry before rows are silently bound to the wrong fields.
func CheckQuery(query string, cols Columns) error {
	list, err := selectList(strings.ToUpper(query))
	if err != nil {
		return err
	}

	pos := 0
	for i, col := range cols {
		idx := indexWord(list[pos:], strings.ToUpper(col.Name))
		if idx < 0 {
			return fmt.Errorf("column %d (%s) not found in order in select list", i, col.Name)
		}
		pos += idx + len(col.Name)
	}
	return nil
}

// selectList returns the text between the first SELECT and the FROM that
// follows it.
func selectList(upper string) (string, error) {
	start := indexWord(upper, "SELECT")
	if start < 0 {
		return "", fmt.Errorf("query has no SELECT")
	}
	start += len("SELECT")

	end := indexWord(upper[start:], "FROM")
	if end < 0 {
		return "", fmt.Errorf("query has no FROM after SELECT")
	}
	return upper[start : start+end], nil
}

// indexWord finds word in s where it is not part of a longer identifier.
func indexWord(s, word string) int {
	offset := 0
	for {
		idx := strings.Index(s[offset:], word)
		if idx < 0 {
			return -1
		}
		start := offset + idx
		end := start + len(word)
		if !isIdentByte(s, start-1) && !isIdentByte(s, end) {
			return start
		}
		offset = start + 1
	}
}

func isIdentByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || c == '$' || c == '#' ||
		(c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
