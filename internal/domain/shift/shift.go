package shift

import (
	"time"

	"shift_approval_bot/internal/domain/employee"
)

// Status is the value of the status column on the shifts sheet.
// A record starts as StatusPending and leaves it exactly once.
type Status string

const (
	StatusPending  Status = "Очікує"
	StatusApproved Status = "Підтверджено"
	StatusDeclined Status = "Відхилено"
)

// MaxEditableDays is the trailing window during which a pending shift may
// still be edited by its submitter.
const MaxEditableDays = 7

// Input carries the fields an employee provides when submitting or editing
// a shift.
type Input struct {
	EmployeeName  string
	Date          time.Time
	ShiftHours    float64
	OvertimeHours float64
	Comment       string
	SubmittedAt   time.Time
	ManagerName   string
}

// Record is one row of the shifts sheet mapped to a typed value at the
// gateway boundary. RowIndex is the 1-based sheet row, needed for range
// updates.
type Record struct {
	RowIndex       int
	ID             int
	EmployeeName   string
	Date           time.Time
	ShiftHours     float64
	OvertimeHours  float64
	Comment        string
	SubmittedAt    time.Time // zero when the cell is empty or unparseable
	Status         Status
	ApprovedAt     time.Time
	ManagerComment string
	ManagerName    string
}

// ReferenceDate is the date the editability window counts from: the
// submission date when known, the shift date otherwise.
func (r *Record) ReferenceDate() time.Time {
	if !r.SubmittedAt.IsZero() {
		return time.Date(r.SubmittedAt.Year(), r.SubmittedAt.Month(), r.SubmittedAt.Day(), 0, 0, 0, 0, r.SubmittedAt.Location())
	}
	return r.Date
}

// EditableOn reports whether the record may still be edited on the given day.
func (r *Record) EditableOn(today time.Time, maxDays int) bool {
	if r.Status != StatusPending {
		return false
	}
	threshold := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, -maxDays)
	return !r.ReferenceDate().Before(threshold)
}

// Accrual is one payroll line, written exactly once when a shift is approved
// and never touched again.
type Accrual struct {
	ID            int
	EmployeeName  string
	Date          time.Time
	OvertimeHours float64
	ShiftRate     float64
	OvertimeRate  float64
	ShiftSum      float64
	OvertimeSum   float64
	TotalSum      float64
}

// ComputeAccrual prices an approved shift with the employee's current rates.
// Rates are captured here, at approval time, not looked up later.
func ComputeAccrual(r *Record, emp *employee.Employee) Accrual {
	shiftSum := r.ShiftHours * emp.ShiftRate
	overtimeSum := r.OvertimeHours * emp.OvertimeRate
	return Accrual{
		EmployeeName:  emp.Name,
		Date:          r.Date,
		OvertimeHours: r.OvertimeHours,
		ShiftRate:     emp.ShiftRate,
		OvertimeRate:  emp.OvertimeRate,
		ShiftSum:      shiftSum,
		OvertimeSum:   overtimeSum,
		TotalSum:      shiftSum + overtimeSum,
	}
}
