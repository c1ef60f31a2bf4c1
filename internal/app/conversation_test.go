package app

import (
	"context"
	"testing"
	"time"

	"shift_approval_bot/internal/domain/employee"
	"shift_approval_bot/internal/domain/shift"
	isheets "shift_approval_bot/internal/infra/sheets"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC)

type fakeEmployeeRepo struct {
	employees []*employee.Employee
}

func (f *fakeEmployeeRepo) ByPhone(_ context.Context, phone string) (*employee.Employee, error) {
	for _, emp := range f.employees {
		if emp.Phone == phone {
			return emp, nil
		}
	}
	return nil, isheets.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) ByName(_ context.Context, name string) (*employee.Employee, error) {
	for _, emp := range f.employees {
		if emp.Name == name {
			return emp, nil
		}
	}
	return nil, isheets.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) Subordinates(_ context.Context, managerName string) ([]*employee.Employee, error) {
	result := make([]*employee.Employee, 0)
	for _, emp := range f.employees {
		if emp.ManagerName == managerName {
			result = append(result, emp)
		}
	}
	return result, nil
}

type fakeShiftRepo struct {
	records []*shift.Record
	updates map[int]shift.Input
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{updates: make(map[int]shift.Input)}
}

func (f *fakeShiftRepo) Append(_ context.Context, in shift.Input) (int, error) {
	maxID := 0
	for _, record := range f.records {
		if record.ID > maxID {
			maxID = record.ID
		}
	}
	id := maxID + 1
	f.records = append(f.records, &shift.Record{
		ID:            id,
		EmployeeName:  in.EmployeeName,
		Date:          in.Date,
		ShiftHours:    in.ShiftHours,
		OvertimeHours: in.OvertimeHours,
		Comment:       in.Comment,
		SubmittedAt:   in.SubmittedAt,
		Status:        shift.StatusPending,
		ManagerName:   in.ManagerName,
	})
	return id, nil
}

func (f *fakeShiftRepo) ListForEmployee(_ context.Context, employeeName string, daysBack int, onlyPending bool) ([]*shift.Record, error) {
	result := make([]*shift.Record, 0)
	for _, record := range f.records {
		if record.EmployeeName != employeeName {
			continue
		}
		if onlyPending && record.Status != shift.StatusPending {
			continue
		}
		threshold := time.Date(fixedNow.Year(), fixedNow.Month(), fixedNow.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysBack)
		if daysBack > 0 && record.ReferenceDate().Before(threshold) {
			continue
		}
		result = append(result, record)
	}
	return result, nil
}

func (f *fakeShiftRepo) FindEditable(_ context.Context, employeeName string, shiftID, maxDays int) (*shift.Record, error) {
	for _, record := range f.records {
		if record.ID != shiftID {
			continue
		}
		if record.EmployeeName != employeeName || !record.EditableOn(fixedNow, maxDays) {
			return nil, isheets.ErrShiftNotFound
		}
		return record, nil
	}
	return nil, isheets.ErrShiftNotFound
}

func (f *fakeShiftRepo) ListPendingForManager(_ context.Context, managerName string) ([]*shift.Record, error) {
	result := make([]*shift.Record, 0)
	for _, record := range f.records {
		if record.ManagerName == managerName && record.Status == shift.StatusPending {
			result = append(result, record)
		}
	}
	return result, nil
}

func (f *fakeShiftRepo) UpdateDetails(ctx context.Context, shiftID int, employeeName string, in shift.Input, maxDays int) (bool, error) {
	record, err := f.FindEditable(ctx, employeeName, shiftID, maxDays)
	if err == isheets.ErrShiftNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	record.Date = in.Date
	record.ShiftHours = in.ShiftHours
	record.OvertimeHours = in.OvertimeHours
	record.Comment = in.Comment
	record.SubmittedAt = in.SubmittedAt
	f.updates[shiftID] = in
	return true, nil
}

func (f *fakeShiftRepo) Decide(_ context.Context, shiftID int, status shift.Status, managerName, comment string, decidedAt time.Time) (*shift.Record, bool, error) {
	for _, record := range f.records {
		if record.ID != shiftID {
			continue
		}
		if record.Status != shift.StatusPending {
			return record, false, nil
		}
		record.Status = status
		record.ApprovedAt = decidedAt
		record.ManagerComment = comment
		record.ManagerName = managerName
		return record, true, nil
	}
	return nil, false, isheets.ErrShiftNotFound
}

type fixture struct {
	convo   *Conversations
	auth    *AuthRegistry
	shifts  *fakeShiftRepo
	staff   *employee.Employee
	manager *employee.Employee
}

const (
	staffSession   int64 = 100
	managerSession int64 = 200
)

func newFixture() *fixture {
	manager := &employee.Employee{
		Name: "Іван Петренко", Phone: "380501234567", Role: employee.RoleManager,
	}
	staff := &employee.Employee{
		Name: "Олена Шевченко", Phone: "380671112233", Role: employee.RoleStaff,
		ShiftRate: 100, OvertimeRate: 150, ManagerName: manager.Name,
	}
	employees := &fakeEmployeeRepo{employees: []*employee.Employee{manager, staff}}
	shiftRepo := newFakeShiftRepo()

	service := NewShiftService(employees, shiftRepo, time.UTC)
	service.now = func() time.Time { return fixedNow }

	auth := NewAuthRegistry()
	convo := NewConversations(NewSessionStore(), auth, service, logrus.NewEntry(logrus.New()))
	return &fixture{convo: convo, auth: auth, shifts: shiftRepo, staff: staff, manager: manager}
}

func (f *fixture) loginStaff() {
	f.auth.Login(staffSession, f.staff)
}

func (f *fixture) loginManager() {
	f.auth.Login(managerSession, f.manager)
}

func (f *fixture) seedPendingShift(id int) {
	f.shifts.records = append(f.shifts.records, &shift.Record{
		ID:            id,
		EmployeeName:  f.staff.Name,
		Date:          fixedNow.AddDate(0, 0, -1),
		ShiftHours:    8,
		OvertimeHours: 1,
		Comment:       "старий коментар",
		SubmittedAt:   fixedNow.AddDate(0, 0, -1),
		Status:        shift.StatusPending,
		ManagerName:   f.manager.Name,
	})
}

func step(t *testing.T, f *fixture, session int64, text string) Reply {
	t.Helper()
	reply, handled, err := f.convo.HandleText(context.Background(), session, text)
	require.NoError(t, err)
	require.True(t, handled)
	return reply
}

func TestSubmissionFlow(t *testing.T) {
	f := newFixture()
	f.loginStaff()

	reply := f.convo.StartSubmission(staffSession)
	assert.Contains(t, reply.Text, "дату зміни")
	assert.Equal(t, KeyboardRemove, reply.Keyboard)

	// Invalid input re-prompts without advancing.
	reply = step(t, f, staffSession, "вчора")
	assert.Contains(t, reply.Text, "Невірний формат дати")

	reply = step(t, f, staffSession, "24.03.2024")
	assert.Contains(t, reply.Text, "робочий день")

	reply = step(t, f, staffSession, "-5")
	assert.Contains(t, reply.Text, "числом")

	reply = step(t, f, staffSession, "7,5")
	assert.Contains(t, reply.Text, "овертайму")

	reply = step(t, f, staffSession, "2")
	assert.Contains(t, reply.Text, "коментар")
	assert.Equal(t, KeyboardSkipComment, reply.Keyboard)

	reply = step(t, f, staffSession, SkipComment)
	assert.Contains(t, reply.Text, "Зміна #1 збережена")
	assert.Equal(t, KeyboardMainMenu, reply.Keyboard)

	require.Len(t, f.shifts.records, 1)
	record := f.shifts.records[0]
	assert.Equal(t, f.staff.Name, record.EmployeeName)
	assert.Equal(t, time.Date(2024, 3, 24, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, 7.5, record.ShiftHours)
	assert.Equal(t, 2.0, record.OvertimeHours)
	assert.Equal(t, "", record.Comment)
	assert.Equal(t, shift.StatusPending, record.Status)
	assert.Equal(t, f.manager.Name, record.ManagerName)

	// The session is back to idle.
	_, handled, err := f.convo.HandleText(context.Background(), staffSession, "24.03.2024")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestStartingNewFlowDiscardsPrevious(t *testing.T) {
	f := newFixture()
	f.loginStaff()

	f.convo.StartSubmission(staffSession)
	step(t, f, staffSession, "20.03.2024")
	step(t, f, staffSession, "10")

	// Restart from scratch: no field from the first attempt may leak.
	f.convo.StartSubmission(staffSession)
	step(t, f, staffSession, "24.03.2024")
	step(t, f, staffSession, "8")
	step(t, f, staffSession, "0")
	step(t, f, staffSession, "готово")

	require.Len(t, f.shifts.records, 1)
	record := f.shifts.records[0]
	assert.Equal(t, time.Date(2024, 3, 24, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, 8.0, record.ShiftHours)
	assert.Equal(t, 0.0, record.OvertimeHours)
	assert.Equal(t, "готово", record.Comment)
}

func TestSubmissionRequiresAuthorization(t *testing.T) {
	f := newFixture()

	reply := f.convo.StartSubmission(staffSession)
	assert.Equal(t, replyNotAuthorized, reply)

	_, handled, err := f.convo.HandleText(context.Background(), staffSession, "24.03.2024")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestEditFlow(t *testing.T) {
	f := newFixture()
	f.loginStaff()
	f.seedPendingShift(4)

	reply, err := f.convo.StartEdit(context.Background(), staffSession)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "#4")
	assert.Contains(t, reply.Text, "Введи номер заявки")

	// Non-numeric and ineligible ids re-prompt the selection state.
	reply = step(t, f, staffSession, "чотири")
	assert.Contains(t, reply.Text, "числом")

	reply = step(t, f, staffSession, "#99")
	assert.Contains(t, reply.Text, "недоступна для редагування")

	reply = step(t, f, staffSession, "#4")
	assert.Contains(t, reply.Text, "Поточна дата зміни: 24.03.2024")

	reply = step(t, f, staffSession, "22.03.2024")
	assert.Contains(t, reply.Text, "Поточне значення: 8")

	reply = step(t, f, staffSession, "9")
	assert.Contains(t, reply.Text, "Поточне значення: 1")

	reply = step(t, f, staffSession, "0,5")
	assert.Contains(t, reply.Text, "Поточний коментар: старий коментар")

	reply = step(t, f, staffSession, "новий коментар")
	assert.Contains(t, reply.Text, "Заявка #4 оновлена")

	updated, ok := f.shifts.updates[4]
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC), updated.Date)
	assert.Equal(t, 9.0, updated.ShiftHours)
	assert.Equal(t, 0.5, updated.OvertimeHours)
	assert.Equal(t, "новий коментар", updated.Comment)
}

func TestEditWithoutEditableShifts(t *testing.T) {
	f := newFixture()
	f.loginStaff()

	reply, err := f.convo.StartEdit(context.Background(), staffSession)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Нет заявок для редактирования")

	_, handled, err := f.convo.HandleText(context.Background(), staffSession, "1")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestEditFailsWhenRecordDecidedMidFlow(t *testing.T) {
	f := newFixture()
	f.loginStaff()
	f.seedPendingShift(4)

	_, err := f.convo.StartEdit(context.Background(), staffSession)
	require.NoError(t, err)
	step(t, f, staffSession, "4")
	step(t, f, staffSession, "22.03.2024")
	step(t, f, staffSession, "9")
	step(t, f, staffSession, "0")

	// The manager decides while the form is still open.
	f.shifts.records[0].Status = shift.StatusApproved

	reply := step(t, f, staffSession, SkipComment)
	assert.Contains(t, reply.Text, "Не вдалося оновити заявку")
	assert.Empty(t, f.shifts.updates)

	// The session is cleared rather than left mid-flow.
	_, handled, err := f.convo.HandleText(context.Background(), staffSession, "4")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestDecisionFlow(t *testing.T) {
	f := newFixture()
	f.loginStaff()
	f.loginManager()
	f.seedPendingShift(4)

	reply := f.convo.StartDecision(managerSession, 4, true)
	assert.Contains(t, reply.Text, "коментар до рішення")

	reply = step(t, f, managerSession, "молодець")
	assert.Contains(t, reply.Text, "Статус заявки #4 змінено на «Підтверджено»")

	record := f.shifts.records[0]
	assert.Equal(t, shift.StatusApproved, record.Status)
	assert.Equal(t, "молодець", record.ManagerComment)
	assert.Equal(t, f.manager.Name, record.ManagerName)
}

func TestDecisionOnAlreadyDecidedShift(t *testing.T) {
	f := newFixture()
	f.loginManager()
	f.seedPendingShift(4)
	f.shifts.records[0].Status = shift.StatusDeclined

	f.convo.StartDecision(managerSession, 4, true)
	reply := step(t, f, managerSession, SkipComment)

	// The reply names the status the shift actually has, not the attempted one.
	assert.Contains(t, reply.Text, "вже має статус «Відхилено»")
	assert.Equal(t, shift.StatusDeclined, f.shifts.records[0].Status)
}

func TestDecisionDeniedForStaff(t *testing.T) {
	f := newFixture()
	f.loginStaff()

	reply := f.convo.StartDecision(staffSession, 4, true)
	assert.Equal(t, "Немає прав.", reply.Text)

	_, handled, err := f.convo.HandleText(context.Background(), staffSession, "коментар")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestDecisionOnUnknownShift(t *testing.T) {
	f := newFixture()
	f.loginManager()

	f.convo.StartDecision(managerSession, 77, false)
	reply := step(t, f, managerSession, SkipComment)
	assert.Contains(t, reply.Text, "Заявку не знайдено")
}
