package employee

import "strings"

// Role is the value of the role column on the employees sheet.
type Role string

const (
	RoleManager Role = "Керівник"
	RoleStaff   Role = "Співробітник"
)

// Employee represents a row of the employees sheet. Rows are provisioned by
// hand in the spreadsheet; the bot only ever reads them.
type Employee struct {
	Name         string
	Phone        string
	Role         Role
	ShiftRate    float64
	OvertimeRate float64
	ManagerName  string // empty for top-level managers
}

func (e *Employee) IsManager() bool {
	return strings.EqualFold(strings.TrimSpace(string(e.Role)), string(RoleManager))
}
