package models

// Sentinel values substituted for missing relational data.
const (
	NoDepartment = "No Department"
	NoManager    = "No Manager"
	NoRegion     = "No Region"
)

// Employee is one row of an employee listing. Optional columns are pointers
// so a database NULL serializes as JSON null.
type Employee struct {
	EmployeeID     int     `json:"id"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	JobID          string  `json:"jobId"`
	JobTitle       *string `json:"jobTitle"`
	Salary         float64 `json:"salary"`
	DepartmentName *string `json:"departmentName"`
	ManagerName    *string `json:"managerName"`
	RegionName     *string `json:"regionName"`
	PhoneNumber    *string `json:"phoneNumber"`
	Email          *string `json:"email"`
}

// DepartmentEmployeeCount is one row of the department head-count view.
type DepartmentEmployeeCount struct {
	DepartmentName string `json:"departmentName"`
	DepartmentID   int    `json:"departmentId"`
	NumEmployees   int    `json:"numEmployees"`
}

// SalaryRange bounds a salary-range lookup.
type SalaryRange struct {
	Min float64
	Max float64
}

// Default salary bounds used when a caller omits them.
const (
	DefaultMinSalary = 3000
	DefaultMaxSalary = 10000
)
