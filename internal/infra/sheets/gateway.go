package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shift_approval_bot/internal/domain/employee"
	"shift_approval_bot/internal/domain/shift"
	"shift_approval_bot/internal/parse"

	"github.com/sirupsen/logrus"
)

// Worksheet titles.
const (
	employeesSheet = "Співробітники"
	shiftsSheet    = "Зміни"
	accrualsSheet  = "Нарахування"
)

// Shifts sheet headers, columns A through K.
const (
	colShiftID        = "ID Запису"
	colEmployeeName   = "ПІБ"
	colShiftDate      = "Дата зміни"
	colOvertimeHours  = "Овертайм годин"
	colShiftHours     = "Кількість відпрацьованих годин зміни"
	colComment        = "Коментар"
	colSubmittedAt    = "Дата/Час Подачі"
	colStatus         = "Статус"
	colApprovedAt     = "Дата/Час Апрува"
	colManagerComment = "Коментар Керівника"
	colManagerName    = "ПІБ Керівника"
)

// Employees sheet headers (name column is shared with the shifts sheet).
const (
	colPhone        = "Телефон"
	colRole         = "Роль"
	colShiftRate    = "Вартість зміни"
	colOvertimeRate = "Вартість години овертайму"
	colManager      = "Керівник"
)

// Custom errors. A shift that exists but belongs to someone else, already
// left pending or fell out of the editability window is reported exactly
// like a missing one, so foreign shift ids cannot be probed.
var ErrEmployeeNotFound = fmt.Errorf("employee not found")
var ErrShiftNotFound = fmt.Errorf("shift not found")

// Gateway implements the employee and shift repositories over the three
// worksheets. Every call re-reads the sheet: the spreadsheet is the single
// source of truth and may be edited by hand at any moment.
type Gateway struct {
	api API
	log *logrus.Entry
	now func() time.Time
}

func NewGateway(api API, log *logrus.Entry) *Gateway {
	return &Gateway{api: api, log: log, now: time.Now}
}

func (g *Gateway) ByPhone(ctx context.Context, phone string) (*employee.Employee, error) {
	employees, err := g.fetchEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for _, emp := range employees {
		if emp.Phone == phone {
			return emp, nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (g *Gateway) ByName(ctx context.Context, name string) (*employee.Employee, error) {
	employees, err := g.fetchEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for _, emp := range employees {
		if emp.Name == name {
			return emp, nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (g *Gateway) Subordinates(ctx context.Context, managerName string) ([]*employee.Employee, error) {
	employees, err := g.fetchEmployees(ctx)
	if err != nil {
		return nil, err
	}
	subordinates := make([]*employee.Employee, 0)
	for _, emp := range employees {
		if emp.ManagerName == managerName {
			subordinates = append(subordinates, emp)
		}
	}
	return subordinates, nil
}

func (g *Gateway) Append(ctx context.Context, in shift.Input) (int, error) {
	nextID, err := g.nextID(ctx, shiftsSheet)
	if err != nil {
		return 0, err
	}
	row := []interface{}{
		nextID,
		in.EmployeeName,
		parse.FormatDate(in.Date),
		in.OvertimeHours,
		in.ShiftHours,
		in.Comment,
		parse.FormatDateTime(in.SubmittedAt),
		string(shift.StatusPending),
		"",
		"",
		in.ManagerName,
	}
	if err := g.api.AppendRow(ctx, shiftsSheet, row); err != nil {
		return 0, err
	}
	return nextID, nil
}

func (g *Gateway) ListForEmployee(ctx context.Context, employeeName string, daysBack int, onlyPending bool) ([]*shift.Record, error) {
	records, err := g.fetchShiftRecords(ctx)
	if err != nil {
		return nil, err
	}
	var threshold time.Time
	if daysBack > 0 {
		now := g.now()
		threshold = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -daysBack)
	}
	result := make([]*shift.Record, 0)
	for _, record := range records {
		if record.EmployeeName != employeeName {
			continue
		}
		if onlyPending && record.Status != shift.StatusPending {
			continue
		}
		if daysBack > 0 && record.ReferenceDate().Before(threshold) {
			continue
		}
		result = append(result, record)
	}
	return result, nil
}

func (g *Gateway) FindEditable(ctx context.Context, employeeName string, shiftID, maxDays int) (*shift.Record, error) {
	records, err := g.fetchShiftRecords(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.ID != shiftID {
			continue
		}
		if record.EmployeeName != employeeName {
			return nil, ErrShiftNotFound
		}
		if !record.EditableOn(g.now(), maxDays) {
			return nil, ErrShiftNotFound
		}
		return record, nil
	}
	return nil, ErrShiftNotFound
}

func (g *Gateway) ListPendingForManager(ctx context.Context, managerName string) ([]*shift.Record, error) {
	records, err := g.fetchShiftRecords(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*shift.Record, 0)
	for _, record := range records {
		if record.ManagerName == managerName && record.Status == shift.StatusPending {
			result = append(result, record)
		}
	}
	return result, nil
}

// UpdateDetails re-validates editability right before the write: the caller's
// earlier read may have gone stale while the form was being filled in.
func (g *Gateway) UpdateDetails(ctx context.Context, shiftID int, employeeName string, in shift.Input, maxDays int) (bool, error) {
	editable, err := g.FindEditable(ctx, employeeName, shiftID, maxDays)
	if err == ErrShiftNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	rangeA1 := fmt.Sprintf("%s!C%d:G%d", shiftsSheet, editable.RowIndex, editable.RowIndex)
	values := [][]interface{}{{
		parse.FormatDate(in.Date),
		in.OvertimeHours,
		in.ShiftHours,
		in.Comment,
		parse.FormatDateTime(in.SubmittedAt),
	}}
	if err := g.api.UpdateRange(ctx, rangeA1, values); err != nil {
		return false, err
	}
	return true, nil
}

// Decide re-reads the current status immediately before writing so that a
// second near-simultaneous decision degrades to a no-op instead of
// overwriting the first one.
func (g *Gateway) Decide(ctx context.Context, shiftID int, status shift.Status, managerName, comment string, decidedAt time.Time) (*shift.Record, bool, error) {
	records, err := g.fetchShiftRecords(ctx)
	if err != nil {
		return nil, false, err
	}
	var target *shift.Record
	for _, record := range records {
		if record.ID == shiftID {
			target = record
			break
		}
	}
	if target == nil {
		return nil, false, ErrShiftNotFound
	}
	if target.Status != shift.StatusPending {
		return target, false, nil
	}
	rangeA1 := fmt.Sprintf("%s!H%d:K%d", shiftsSheet, target.RowIndex, target.RowIndex)
	values := [][]interface{}{{
		string(status),
		parse.FormatDateTime(decidedAt),
		comment,
		managerName,
	}}
	if err := g.api.UpdateRange(ctx, rangeA1, values); err != nil {
		return nil, false, err
	}
	updated := *target
	updated.Status = status
	updated.ApprovedAt = decidedAt
	updated.ManagerComment = comment
	updated.ManagerName = managerName
	if status == shift.StatusApproved {
		if err := g.appendAccrual(ctx, &updated); err != nil {
			return &updated, true, err
		}
	}
	return &updated, true, nil
}

func (g *Gateway) appendAccrual(ctx context.Context, record *shift.Record) error {
	emp, err := g.ByName(ctx, record.EmployeeName)
	if err == ErrEmployeeNotFound {
		// The decision is already written; the accrual is skipped, not retried.
		g.log.WithFields(logrus.Fields{
			"shift_id": record.ID,
			"employee": record.EmployeeName,
		}).Warn("Employee record missing at approval time, accrual skipped")
		return nil
	}
	if err != nil {
		return err
	}
	nextID, err := g.nextID(ctx, accrualsSheet)
	if err != nil {
		return err
	}
	accrual := shift.ComputeAccrual(record, emp)
	row := []interface{}{
		nextID,
		accrual.EmployeeName,
		parse.FormatDate(accrual.Date),
		accrual.OvertimeHours,
		accrual.ShiftRate,
		accrual.OvertimeRate,
		accrual.ShiftSum,
		accrual.OvertimeSum,
		accrual.TotalSum,
	}
	return g.api.AppendRow(ctx, accrualsSheet, row)
}

// nextID scans the id column, ignoring the header and unparseable cells.
func (g *Gateway) nextID(ctx context.Context, sheet string) (int, error) {
	values, err := g.api.ColumnValues(ctx, sheet, 1)
	if err != nil {
		return 0, err
	}
	maxID := 0
	for i, value := range values {
		if i == 0 || strings.TrimSpace(value) == "" {
			continue
		}
		id, ok := parse.Int(value)
		if !ok {
			continue
		}
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1, nil
}

func (g *Gateway) fetchShiftRecords(ctx context.Context) ([]*shift.Record, error) {
	rows, err := g.api.Records(ctx, shiftsSheet)
	if err != nil {
		return nil, err
	}
	records := make([]*shift.Record, 0, len(rows))
	for _, row := range rows {
		id, _ := parse.Int(row.Cells[colShiftID])
		date, ok := parse.Date(row.Cells[colShiftDate])
		if !ok {
			now := g.now()
			date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		}
		submittedAt, _ := parse.DateTime(row.Cells[colSubmittedAt])
		approvedAt, _ := parse.DateTime(row.Cells[colApprovedAt])
		records = append(records, &shift.Record{
			RowIndex:       row.Index,
			ID:             id,
			EmployeeName:   strings.TrimSpace(row.Cells[colEmployeeName]),
			Date:           date,
			ShiftHours:     parse.Float(row.Cells[colShiftHours]),
			OvertimeHours:  parse.Float(row.Cells[colOvertimeHours]),
			Comment:        strings.TrimSpace(row.Cells[colComment]),
			SubmittedAt:    submittedAt,
			Status:         shift.Status(strings.TrimSpace(row.Cells[colStatus])),
			ApprovedAt:     approvedAt,
			ManagerComment: strings.TrimSpace(row.Cells[colManagerComment]),
			ManagerName:    strings.TrimSpace(row.Cells[colManagerName]),
		})
	}
	return records, nil
}

// fetchEmployees maps employee rows and resolves the manager column, which
// operators sometimes fill with the manager's phone instead of the name.
func (g *Gateway) fetchEmployees(ctx context.Context) ([]*employee.Employee, error) {
	rows, err := g.api.Records(ctx, employeesSheet)
	if err != nil {
		return nil, err
	}
	nameByPhone := make(map[string]string, len(rows))
	for _, row := range rows {
		phone := strings.TrimSpace(row.Cells[colPhone])
		name := strings.TrimSpace(row.Cells[colEmployeeName])
		if phone != "" && name != "" {
			nameByPhone[phone] = name
		}
	}
	employees := make([]*employee.Employee, 0, len(rows))
	for _, row := range rows {
		managerName := strings.TrimSpace(row.Cells[colManager])
		if resolved, ok := nameByPhone[managerName]; ok && managerName != "" {
			managerName = resolved
		}
		employees = append(employees, &employee.Employee{
			Name:         strings.TrimSpace(row.Cells[colEmployeeName]),
			Phone:        strings.TrimSpace(row.Cells[colPhone]),
			Role:         employee.Role(strings.TrimSpace(row.Cells[colRole])),
			ShiftRate:    parse.Float(row.Cells[colShiftRate]),
			OvertimeRate: parse.Float(row.Cells[colOvertimeRate]),
			ManagerName:  managerName,
		})
	}
	return employees, nil
}
