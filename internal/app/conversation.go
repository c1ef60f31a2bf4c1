package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	isheets "shift_approval_bot/internal/infra/sheets"
	"shift_approval_bot/internal/parse"

	"github.com/sirupsen/logrus"
)

// SkipComment is the reserved button text that stands for an empty comment.
const SkipComment = "Пропустити"

// State enumerates every step of the three conversation flows. Each session
// holds exactly one state; starting a new flow overwrites whatever was in
// progress.
type State int

const (
	StateIdle State = iota

	// Shift submission.
	StateSubmitDate
	StateSubmitShiftHours
	StateSubmitOvertimeHours
	StateSubmitComment

	// Shift edit.
	StateEditSelectShift
	StateEditDate
	StateEditShiftHours
	StateEditOvertimeHours
	StateEditComment

	// Manager decision.
	StateDecisionComment
)

// Form accumulates the fields entered so far. A single struct serves all
// three flows; a flow only reads the fields it wrote itself, and the whole
// form is discarded whenever a new flow starts.
type Form struct {
	ShiftDate     time.Time
	ShiftHours    float64
	OvertimeHours float64

	EditShiftID       int
	PrevShiftHours    float64
	PrevOvertimeHours float64
	PrevComment       string

	DecisionShiftID int
	DecisionApprove bool
}

// Conversation is the per-session slot: current state plus accumulated form.
type Conversation struct {
	State State
	Form  Form
}

// SessionStore keeps one conversation per chat session. The transport
// serializes events within a session, but sessions run concurrently.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Conversation
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]Conversation)}
}

func (s *SessionStore) Get(sessionID int64) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sessionID]
}

func (s *SessionStore) Put(sessionID int64, c Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = c
}

func (s *SessionStore) Clear(sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Keyboard names one of the fixed markup layouts the transport can render.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardRemove
	KeyboardMainMenu
	KeyboardShareContact
	KeyboardSkipComment
)

// Reply is a transport-neutral rendered response.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

var replyNotAuthorized = Reply{
	Text:     "Спочатку авторизуйся, поділившись номером.",
	Keyboard: KeyboardShareContact,
}

var replyManagersOnly = Reply{
	Text:     "Ця дія доступна лише керівникам.",
	Keyboard: KeyboardMainMenu,
}

// Conversations drives the multi-turn dialogs. One transition method per
// state; invalid input re-prompts without advancing, persisting transitions
// re-check authorization first.
type Conversations struct {
	sessions *SessionStore
	auth     *AuthRegistry
	shifts   *ShiftService
	log      *logrus.Entry
}

func NewConversations(sessions *SessionStore, auth *AuthRegistry, shifts *ShiftService, log *logrus.Entry) *Conversations {
	return &Conversations{sessions: sessions, auth: auth, shifts: shifts, log: log}
}

// Clear drops the session's conversation state, leaving authentication alone.
func (c *Conversations) Clear(sessionID int64) {
	c.sessions.Clear(sessionID)
}

// StartSubmission begins the shift submission flow, discarding any flow in
// progress.
func (c *Conversations) StartSubmission(sessionID int64) Reply {
	if c.auth.Current(sessionID) == nil {
		c.sessions.Clear(sessionID)
		return replyNotAuthorized
	}
	c.sessions.Put(sessionID, Conversation{State: StateSubmitDate})
	return Reply{Text: "Вкажи дату зміни у форматі ДД.ММ.РРРР.", Keyboard: KeyboardRemove}
}

// StartEdit begins the edit flow. Entry requires at least one editable shift.
func (c *Conversations) StartEdit(ctx context.Context, sessionID int64) (Reply, error) {
	emp := c.auth.Current(sessionID)
	if emp == nil {
		c.sessions.Clear(sessionID)
		return replyNotAuthorized, nil
	}
	c.sessions.Clear(sessionID)
	shifts, err := c.shifts.PendingShifts(ctx, emp)
	if err != nil {
		return Reply{}, err
	}
	if len(shifts) == 0 {
		return Reply{
			Text:     "Нет заявок для редактирования. Доступно только для заявок, поданных не позже 7 днів тому та зі статусом «Очікує».",
			Keyboard: KeyboardMainMenu,
		}, nil
	}
	lines := make([]string, 0, len(shifts))
	for _, record := range shifts {
		lines = append(lines, fmt.Sprintf(
			"#%d — %s\nГодини: %s, Овертайм: %s\nКоментар: %s",
			record.ID,
			parse.FormatDate(record.Date),
			formatHours(record.ShiftHours),
			formatHours(record.OvertimeHours),
			orDash(record.Comment),
		))
	}
	c.sessions.Put(sessionID, Conversation{State: StateEditSelectShift})
	return Reply{
		Text:     "Доступні заявки для редагування:\n" + strings.Join(lines, "\n\n") + "\n\nВведи номер заявки, яку треба змінити.",
		Keyboard: KeyboardRemove,
	}, nil
}

// StartDecision begins the decision flow from an approve/decline button
// press on a rendered shift.
func (c *Conversations) StartDecision(sessionID int64, shiftID int, approve bool) Reply {
	emp := c.auth.Current(sessionID)
	if emp == nil || !emp.IsManager() {
		c.sessions.Clear(sessionID)
		return Reply{Text: "Немає прав."}
	}
	c.sessions.Put(sessionID, Conversation{
		State: StateDecisionComment,
		Form:  Form{DecisionShiftID: shiftID, DecisionApprove: approve},
	})
	return Reply{Text: "Додай коментар до рішення (або натисни «Пропустити»).", Keyboard: KeyboardSkipComment}
}

// HandleText advances the session's flow with one text input. The second
// return value is false when no flow is in progress and the text belongs to
// the caller (menu routing).
func (c *Conversations) HandleText(ctx context.Context, sessionID int64, text string) (Reply, bool, error) {
	conv := c.sessions.Get(sessionID)
	if conv.State == StateIdle {
		return Reply{}, false, nil
	}

	var reply Reply
	var err error
	switch conv.State {
	case StateSubmitDate:
		reply = c.handleSubmitDate(sessionID, conv, text)
	case StateSubmitShiftHours:
		reply = c.handleSubmitShiftHours(sessionID, conv, text)
	case StateSubmitOvertimeHours:
		reply = c.handleSubmitOvertimeHours(sessionID, conv, text)
	case StateSubmitComment:
		reply, err = c.handleSubmitComment(ctx, sessionID, conv, text)
	case StateEditSelectShift:
		reply, err = c.handleEditSelect(ctx, sessionID, conv, text)
	case StateEditDate:
		reply = c.handleEditDate(sessionID, conv, text)
	case StateEditShiftHours:
		reply = c.handleEditShiftHours(sessionID, conv, text)
	case StateEditOvertimeHours:
		reply = c.handleEditOvertimeHours(sessionID, conv, text)
	case StateEditComment:
		reply, err = c.handleEditComment(ctx, sessionID, conv, text)
	case StateDecisionComment:
		reply, err = c.handleDecisionComment(ctx, sessionID, conv, text)
	}
	return reply, true, err
}

func (c *Conversations) handleSubmitDate(sessionID int64, conv Conversation, text string) Reply {
	date, ok := parse.Date(text)
	if !ok {
		return Reply{Text: "Невірний формат дати. Спробуй ще раз (ДД.ММ.РРРР)."}
	}
	conv.Form.ShiftDate = date
	conv.State = StateSubmitShiftHours
	c.sessions.Put(sessionID, conv)
	return Reply{Text: "Скільки годин тривав твій робочий день? (число)"}
}

func (c *Conversations) handleSubmitShiftHours(sessionID int64, conv Conversation, text string) Reply {
	hours, ok := parse.Hours(text)
	if !ok {
		return Reply{Text: "Вкажи кількість годин числом, наприклад 8 або 7.5."}
	}
	conv.Form.ShiftHours = hours
	conv.State = StateSubmitOvertimeHours
	c.sessions.Put(sessionID, conv)
	return Reply{Text: "Скільки годин овертайму? (0, якщо не було)"}
}

func (c *Conversations) handleSubmitOvertimeHours(sessionID int64, conv Conversation, text string) Reply {
	hours, ok := parse.Hours(text)
	if !ok {
		return Reply{Text: "Вкажи годинник овертайму числом."}
	}
	conv.Form.OvertimeHours = hours
	conv.State = StateSubmitComment
	c.sessions.Put(sessionID, conv)
	return Reply{Text: "Додай коментар або натисни «Пропустити».", Keyboard: KeyboardSkipComment}
}

func (c *Conversations) handleSubmitComment(ctx context.Context, sessionID int64, conv Conversation, text string) (Reply, error) {
	emp := c.auth.Current(sessionID)
	if emp == nil {
		c.sessions.Clear(sessionID)
		return replyNotAuthorized, nil
	}
	comment := commentOrEmpty(text)
	shiftID, err := c.shifts.Submit(ctx, emp, conv.Form.ShiftDate, conv.Form.ShiftHours, conv.Form.OvertimeHours, comment)
	c.sessions.Clear(sessionID)
	if err != nil {
		return Reply{}, err
	}
	c.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"employee":   emp.Name,
		"shift_id":   shiftID,
	}).Info("Shift submitted")
	return Reply{
		Text:     fmt.Sprintf("Зміна #%d збережена та очікує підтвердження.", shiftID),
		Keyboard: KeyboardMainMenu,
	}, nil
}

func (c *Conversations) handleEditSelect(ctx context.Context, sessionID int64, conv Conversation, text string) (Reply, error) {
	emp := c.auth.Current(sessionID)
	if emp == nil {
		c.sessions.Clear(sessionID)
		return replyNotAuthorized, nil
	}
	shiftID, ok := parse.ID(text)
	if !ok {
		return Reply{Text: "Вкажи номер заявки числом."}, nil
	}
	record, err := c.shifts.FindEditable(ctx, emp, shiftID)
	if err == isheets.ErrShiftNotFound {
		return Reply{Text: "Заявка недоступна для редагування. Переконайся, що вона очікує підтвердження і подана не пізніше 7 днів тому."}, nil
	}
	if err != nil {
		c.sessions.Clear(sessionID)
		return Reply{}, err
	}
	conv.Form.EditShiftID = shiftID
	conv.Form.PrevShiftHours = record.ShiftHours
	conv.Form.PrevOvertimeHours = record.OvertimeHours
	conv.Form.PrevComment = record.Comment
	conv.State = StateEditDate
	c.sessions.Put(sessionID, conv)
	return Reply{Text: fmt.Sprintf(
		"Поточна дата зміни: %s. Введи нову дату у форматі ДД.ММ.РРРР.",
		parse.FormatDate(record.Date),
	)}, nil
}

func (c *Conversations) handleEditDate(sessionID int64, conv Conversation, text string) Reply {
	date, ok := parse.Date(text)
	if !ok {
		return Reply{Text: "Невірний формат дати. Спробуй (ДД.ММ.РРРР)."}
	}
	conv.Form.ShiftDate = date
	conv.State = StateEditShiftHours
	c.sessions.Put(sessionID, conv)
	return Reply{Text: fmt.Sprintf(
		"Скільки годин тривала зміна? Поточне значення: %s.",
		formatHours(conv.Form.PrevShiftHours),
	)}
}

func (c *Conversations) handleEditShiftHours(sessionID int64, conv Conversation, text string) Reply {
	hours, ok := parse.Hours(text)
	if !ok {
		return Reply{Text: "Вкажи кількість годин числом."}
	}
	conv.Form.ShiftHours = hours
	conv.State = StateEditOvertimeHours
	c.sessions.Put(sessionID, conv)
	return Reply{Text: fmt.Sprintf(
		"Скільки годин овертайму? Поточне значення: %s.",
		formatHours(conv.Form.PrevOvertimeHours),
	)}
}

func (c *Conversations) handleEditOvertimeHours(sessionID int64, conv Conversation, text string) Reply {
	hours, ok := parse.Hours(text)
	if !ok {
		return Reply{Text: "Вкажи годинник овертайму числом."}
	}
	conv.Form.OvertimeHours = hours
	conv.State = StateEditComment
	c.sessions.Put(sessionID, conv)
	return Reply{
		Text: fmt.Sprintf(
			"Поточний коментар: %s\nВведи новий або натисни «%s».",
			orDash(conv.Form.PrevComment), SkipComment,
		),
		Keyboard: KeyboardSkipComment,
	}
}

func (c *Conversations) handleEditComment(ctx context.Context, sessionID int64, conv Conversation, text string) (Reply, error) {
	emp := c.auth.Current(sessionID)
	if emp == nil {
		c.sessions.Clear(sessionID)
		return replyNotAuthorized, nil
	}
	comment := commentOrEmpty(text)
	updated, err := c.shifts.Edit(ctx, emp, conv.Form.EditShiftID, conv.Form.ShiftDate, conv.Form.ShiftHours, conv.Form.OvertimeHours, comment)
	c.sessions.Clear(sessionID)
	if err != nil {
		return Reply{}, err
	}
	if !updated {
		// The record stopped being editable between selection and completion.
		return Reply{
			Text:     "Не вдалося оновити заявку. Вона могла бути підтверджена або минуло більше 7 днів.",
			Keyboard: KeyboardMainMenu,
		}, nil
	}
	c.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"employee":   emp.Name,
		"shift_id":   conv.Form.EditShiftID,
	}).Info("Shift updated")
	return Reply{
		Text:     fmt.Sprintf("Заявка #%d оновлена. Очікує підтвердження.", conv.Form.EditShiftID),
		Keyboard: KeyboardMainMenu,
	}, nil
}

func (c *Conversations) handleDecisionComment(ctx context.Context, sessionID int64, conv Conversation, text string) (Reply, error) {
	emp := c.auth.Current(sessionID)
	if emp == nil {
		c.sessions.Clear(sessionID)
		return replyNotAuthorized, nil
	}
	if !emp.IsManager() {
		c.sessions.Clear(sessionID)
		return replyManagersOnly, nil
	}
	comment := commentOrEmpty(text)
	record, changed, err := c.shifts.Decide(ctx, emp, conv.Form.DecisionShiftID, conv.Form.DecisionApprove, comment)
	c.sessions.Clear(sessionID)
	if err == isheets.ErrShiftNotFound {
		return Reply{Text: "Заявку не знайдено.", Keyboard: KeyboardMainMenu}, nil
	}
	if err != nil {
		return Reply{}, err
	}
	if !changed {
		// Someone decided first; report the status the shift actually has.
		return Reply{
			Text:     fmt.Sprintf("Заявка #%d вже має статус «%s».", conv.Form.DecisionShiftID, record.Status),
			Keyboard: KeyboardMainMenu,
		}, nil
	}
	c.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"manager":    emp.Name,
		"shift_id":   conv.Form.DecisionShiftID,
		"status":     record.Status,
	}).Info("Shift decided")
	return Reply{
		Text:     fmt.Sprintf("Статус заявки #%d змінено на «%s».", conv.Form.DecisionShiftID, record.Status),
		Keyboard: KeyboardMainMenu,
	}, nil
}

func commentOrEmpty(text string) string {
	if text == SkipComment {
		return ""
	}
	return text
}

func formatHours(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func orDash(text string) string {
	if text == "" {
		return "-"
	}
	return text
}
