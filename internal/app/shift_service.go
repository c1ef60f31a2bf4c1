package app

import (
	"context"
	"time"

	"shift_approval_bot/internal/domain/employee"
	"shift_approval_bot/internal/domain/shift"
)

// ShiftService wraps the repositories with the shift lifecycle operations.
// Submission and decision timestamps are stamped in the configured timezone.
type ShiftService struct {
	employees employee.Repository
	shifts    shift.Repository
	location  *time.Location
	now       func() time.Time
}

func NewShiftService(employees employee.Repository, shifts shift.Repository, location *time.Location) *ShiftService {
	return &ShiftService{
		employees: employees,
		shifts:    shifts,
		location:  location,
		now:       time.Now,
	}
}

func (s *ShiftService) localNow() time.Time {
	return s.now().In(s.location)
}

// Submit appends a new pending shift for the employee and returns its id.
// The employee's manager is captured at submission time for approval routing.
func (s *ShiftService) Submit(ctx context.Context, emp *employee.Employee, date time.Time, shiftHours, overtimeHours float64, comment string) (int, error) {
	in := shift.Input{
		EmployeeName:  emp.Name,
		Date:          date,
		ShiftHours:    shiftHours,
		OvertimeHours: overtimeHours,
		Comment:       comment,
		SubmittedAt:   s.localNow(),
		ManagerName:   emp.ManagerName,
	}
	return s.shifts.Append(ctx, in)
}

// Edit rewrites an editable shift's fields. Reports false when the record
// became non-editable between selection and completion.
func (s *ShiftService) Edit(ctx context.Context, emp *employee.Employee, shiftID int, date time.Time, shiftHours, overtimeHours float64, comment string) (bool, error) {
	in := shift.Input{
		EmployeeName:  emp.Name,
		Date:          date,
		ShiftHours:    shiftHours,
		OvertimeHours: overtimeHours,
		Comment:       comment,
		SubmittedAt:   s.localNow(),
		ManagerName:   emp.ManagerName,
	}
	return s.shifts.UpdateDetails(ctx, shiftID, emp.Name, in, shift.MaxEditableDays)
}

func (s *ShiftService) RecentShifts(ctx context.Context, emp *employee.Employee) ([]*shift.Record, error) {
	return s.shifts.ListForEmployee(ctx, emp.Name, shift.MaxEditableDays, false)
}

func (s *ShiftService) PendingShifts(ctx context.Context, emp *employee.Employee) ([]*shift.Record, error) {
	return s.shifts.ListForEmployee(ctx, emp.Name, shift.MaxEditableDays, true)
}

func (s *ShiftService) FindEditable(ctx context.Context, emp *employee.Employee, shiftID int) (*shift.Record, error) {
	return s.shifts.FindEditable(ctx, emp.Name, shiftID, shift.MaxEditableDays)
}

func (s *ShiftService) PendingForManager(ctx context.Context, manager *employee.Employee) ([]*shift.Record, error) {
	return s.shifts.ListPendingForManager(ctx, manager.Name)
}

func (s *ShiftService) Subordinates(ctx context.Context, manager *employee.Employee) ([]*employee.Employee, error) {
	return s.employees.Subordinates(ctx, manager.Name)
}

// Decide applies a manager's decision. When the shift already left pending
// the current record is returned unchanged with changed=false.
func (s *ShiftService) Decide(ctx context.Context, manager *employee.Employee, shiftID int, approve bool, comment string) (*shift.Record, bool, error) {
	status := shift.StatusDeclined
	if approve {
		status = shift.StatusApproved
	}
	return s.shifts.Decide(ctx, shiftID, status, manager.Name, comment, s.localNow())
}
