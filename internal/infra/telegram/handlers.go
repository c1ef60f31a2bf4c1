package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shift_approval_bot/internal/app"
	"shift_approval_bot/internal/domain/employee"
	isheets "shift_approval_bot/internal/infra/sheets"
	"shift_approval_bot/internal/parse"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const msgInternalError = "Сталася помилка. Спробуй пізніше."

// RegisterHandlers wires all inbound event handlers: /start, contact sharing
// (phone login), menu buttons, in-flow text and decision callbacks.
func RegisterHandlers(
	ctx context.Context,
	b *telebot.Bot,
	auth *app.AuthRegistry,
	convo *app.Conversations,
	shifts *app.ShiftService,
	employees employee.Repository,
	sheetLink string,
	baseLogger *logrus.Entry,
) {
	// send renders a transport-neutral reply with the matching markup.
	send := func(c telebot.Context, reply app.Reply) error {
		switch reply.Keyboard {
		case app.KeyboardRemove:
			return c.Send(reply.Text, removeKeyboard())
		case app.KeyboardMainMenu:
			if emp := auth.Current(c.Sender().ID); emp != nil {
				return c.Send(reply.Text, employeeMenu(emp.IsManager()))
			}
			return c.Send(reply.Text, shareContactKeyboard())
		case app.KeyboardShareContact:
			return c.Send(reply.Text, shareContactKeyboard())
		case app.KeyboardSkipComment:
			return c.Send(reply.Text, skipCommentKeyboard())
		default:
			return c.Send(reply.Text)
		}
	}

	// ensureAuthorized resolves the sender's employee or prompts for login.
	ensureAuthorized := func(c telebot.Context) (*employee.Employee, error) {
		emp := auth.Current(c.Sender().ID)
		if emp != nil {
			return emp, nil
		}
		return nil, c.Send("Спочатку авторизуйся, поділившись номером.", shareContactKeyboard())
	}

	b.Handle("/start", func(c telebot.Context) error {
		convo.Clear(c.Sender().ID)
		emp := auth.Current(c.Sender().ID)
		if emp != nil {
			return c.Send(
				fmt.Sprintf("Вітаю, %s! Обери дію в меню.", emp.Name),
				employeeMenu(emp.IsManager()),
			)
		}
		return c.Send(
			"Привіт! Поділись номером телефону, щоб пройти авторизацію.",
			shareContactKeyboard(),
		)
	})

	b.Handle(telebot.OnContact, func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":   "contact",
			"sender_id": senderID,
		})
		convo.Clear(senderID)

		contact := c.Message().Contact
		if contact == nil {
			return nil
		}
		// The contact must prove ownership of the sender's own account.
		if contact.UserID != 0 && contact.UserID != senderID {
			logCtx.Warn("Contact from a foreign account rejected")
			return c.Send("Надішли контакт саме зі свого аккаунту.", shareContactKeyboard())
		}
		phone := app.SanitizePhone(contact.PhoneNumber)
		if phone == "" {
			return c.Send("Не вдалося розпізнати номер. Спробуй ще раз.", shareContactKeyboard())
		}
		emp, err := employees.ByPhone(ctx, phone)
		if err == isheets.ErrEmployeeNotFound {
			logCtx.WithField("phone", phone).Info("Login attempt with unknown phone")
			return c.Send("Твого номеру немає в списку співробітників. Звернися до адміністратора.", shareContactKeyboard())
		}
		if err != nil {
			logCtx.WithError(err).Error("Failed to look up employee by phone")
			return c.Send(msgInternalError, shareContactKeyboard())
		}
		auth.Login(senderID, emp)
		logCtx.WithField("employee", emp.Name).Info("Employee authorized")
		return c.Send(
			fmt.Sprintf("Вітаю, %s! Меню доступне нижче.", emp.Name),
			employeeMenu(emp.IsManager()),
		)
	})

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":   "text",
			"sender_id": senderID,
		})

		switch c.Text() {
		case BtnAddShift:
			return send(c, convo.StartSubmission(senderID))

		case BtnEditShift:
			reply, err := convo.StartEdit(ctx, senderID)
			if err != nil {
				logCtx.WithError(err).Error("Failed to start shift edit")
				return send(c, app.Reply{Text: msgInternalError, Keyboard: app.KeyboardMainMenu})
			}
			return send(c, reply)

		case BtnMyShifts:
			emp, err := ensureAuthorized(c)
			if emp == nil {
				return err
			}
			records, err := shifts.RecentShifts(ctx, emp)
			if err != nil {
				logCtx.WithError(err).Error("Failed to list recent shifts")
				return c.Send(msgInternalError)
			}
			if len(records) == 0 {
				return c.Send("За останні 7 днів немає поданих заявок.")
			}
			lines := make([]string, 0, len(records))
			for _, record := range records {
				lines = append(lines, fmt.Sprintf(
					"#%d — %s | %s\nГодини: %s, Овертайм: %s\nКоментар: %s",
					record.ID,
					parse.FormatDate(record.Date),
					record.Status,
					formatHours(record.ShiftHours),
					formatHours(record.OvertimeHours),
					orDash(record.Comment),
				))
			}
			return c.Send(strings.Join(lines, "\n\n"))

		case BtnPendingShifts:
			emp, err := ensureAuthorized(c)
			if emp == nil {
				return err
			}
			records, err := shifts.PendingShifts(ctx, emp)
			if err != nil {
				logCtx.WithError(err).Error("Failed to list pending shifts")
				return c.Send(msgInternalError)
			}
			if len(records) == 0 {
				return c.Send("Немає заявок у статусі очікування за останні 7 днів.")
			}
			lines := make([]string, 0, len(records))
			for _, record := range records {
				lines = append(lines, fmt.Sprintf(
					"#%d — %s\nГодини: %s, Овертайм: %s\nКоментар: %s",
					record.ID,
					parse.FormatDate(record.Date),
					formatHours(record.ShiftHours),
					formatHours(record.OvertimeHours),
					orDash(record.Comment),
				))
			}
			return c.Send(strings.Join(lines, "\n\n"))

		case BtnManagerPending:
			emp, err := ensureAuthorized(c)
			if emp == nil {
				return err
			}
			if !emp.IsManager() {
				return c.Send("Ця дія доступна лише керівникам.")
			}
			records, err := shifts.PendingForManager(ctx, emp)
			if err != nil {
				logCtx.WithError(err).Error("Failed to list manager queue")
				return c.Send(msgInternalError)
			}
			if len(records) == 0 {
				return c.Send("Немає заявок, що очікують підтвердження.")
			}
			for _, record := range records {
				text := fmt.Sprintf(
					"Заявка #%d\nСпівробітник: %s\nДата: %s\nГодини: %s | Овертайм: %s\nКоментар: %s",
					record.ID,
					record.EmployeeName,
					parse.FormatDate(record.Date),
					formatHours(record.ShiftHours),
					formatHours(record.OvertimeHours),
					orDash(record.Comment),
				)
				if err := c.Send(text, decisionKeyboard(record.ID)); err != nil {
					return err
				}
			}
			return nil

		case BtnSubordinates:
			emp, err := ensureAuthorized(c)
			if emp == nil {
				return err
			}
			if !emp.IsManager() {
				return c.Send("Ця дія доступна лише керівникам.")
			}
			subordinates, err := shifts.Subordinates(ctx, emp)
			if err != nil {
				logCtx.WithError(err).Error("Failed to list subordinates")
				return c.Send(msgInternalError)
			}
			if len(subordinates) == 0 {
				return c.Send("У тебе поки немає підлеглих.")
			}
			lines := make([]string, 0, len(subordinates))
			for _, sub := range subordinates {
				lines = append(lines, fmt.Sprintf(
					"%s — %s\nСтавка зміни: %s, овертайм: %s",
					sub.Name, sub.Phone,
					formatHours(sub.ShiftRate), formatHours(sub.OvertimeRate),
				))
			}
			return c.Send(strings.Join(lines, "\n\n"))

		case BtnSheetLink:
			emp, err := ensureAuthorized(c)
			if emp == nil {
				return err
			}
			if !emp.IsManager() {
				return c.Send("Ця дія доступна лише керівникам.")
			}
			return c.Send(fmt.Sprintf("Спільна таблиця: %s", sheetLink))

		case BtnHelp:
			emp := auth.Current(senderID)
			text := helpText(emp)
			if emp != nil {
				return c.Send(text, employeeMenu(emp.IsManager()))
			}
			return c.Send(text, shareContactKeyboard())
		}

		// Not a menu action: feed the text to whatever flow is in progress.
		reply, handled, err := convo.HandleText(ctx, senderID, c.Text())
		if err != nil {
			logCtx.WithError(err).Error("Conversation step failed")
			return send(c, app.Reply{Text: msgInternalError, Keyboard: app.KeyboardMainMenu})
		}
		if !handled {
			return nil
		}
		return send(c, reply)
	})

	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":   "callback",
			"sender_id": senderID,
		})

		data := strings.TrimPrefix(c.Callback().Data, "\f")
		parts := strings.SplitN(data, ":", 2)
		if len(parts) != 2 || (parts[0] != callbackApprove && parts[0] != callbackDecline) {
			logCtx.WithField("data", data).Warn("Unknown callback action")
			return c.Respond(&telebot.CallbackResponse{Text: "Невідома дія."})
		}
		shiftID, err := strconv.Atoi(parts[1])
		if err != nil {
			logCtx.WithField("data", data).Warn("Malformed shift id in callback")
			return c.Respond(&telebot.CallbackResponse{Text: "Невідома дія."})
		}

		emp := auth.Current(senderID)
		if emp == nil || !emp.IsManager() {
			return c.Respond(&telebot.CallbackResponse{Text: "Немає прав.", ShowAlert: true})
		}

		reply := convo.StartDecision(senderID, shiftID, parts[0] == callbackApprove)
		if err := send(c, reply); err != nil {
			return err
		}
		return c.Respond()
	})
}

func helpText(emp *employee.Employee) string {
	base := "Доступні дії:\n" +
		"• \"" + BtnAddShift + "\" — подати нову заявку.\n" +
		"• \"" + BtnEditShift + "\" — редагувати заявку зі статусом «Очікує», подану не пізніше 7 днів тому.\n" +
		"• \"" + BtnMyShifts + "\" — переглянути останні заявки.\n" +
		"• \"" + BtnPendingShifts + "\" — відкриті заявки за останні 7 днів.\n"
	if emp == nil || !emp.IsManager() {
		return base
	}
	manager := "Меню керівника:\n" +
		"• \"" + BtnManagerPending + "\" — заявки співробітників, що потребують рішення.\n" +
		"• \"" + BtnSubordinates + "\" — список команди з контактами та ставками.\n" +
		"• \"" + BtnSheetLink + "\" — швидкий перехід до Google Sheets.\n" +
		"Кнопки підтвердження/відхилення відкривають форму для коментаря."
	return base + "\n" + manager
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
