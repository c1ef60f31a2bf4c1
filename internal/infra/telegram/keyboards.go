package telegram

import (
	"fmt"

	"shift_approval_bot/internal/app"

	"gopkg.in/telebot.v3"
)

// Menu button texts. The staff menu keeps the wording the team is used to.
const (
	BtnAddShift       = "Добавить новую смену"
	BtnEditShift      = "Редактировать поданую смену"
	BtnMyShifts       = "Мои смены (7 дней)"
	BtnPendingShifts  = "Заявки в ожидании"
	BtnHelp           = "Помощь"
	BtnManagerPending = "В очікуванні"
	BtnSubordinates   = "Мої співробітники"
	BtnSheetLink      = "Переглянути таблицю"
	BtnShareContact   = "Поделиться номером"
)

// Callback data prefixes for the per-shift decision buttons.
const (
	callbackApprove = "approve"
	callbackDecline = "decline"
)

func shareContactKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{
		ResizeKeyboard: true,
		ReplyKeyboard: [][]telebot.ReplyButton{
			{{Text: BtnShareContact, Contact: true}},
		},
	}
}

func employeeMenu(isManager bool) *telebot.ReplyMarkup {
	if isManager {
		return &telebot.ReplyMarkup{
			ResizeKeyboard: true,
			ReplyKeyboard: [][]telebot.ReplyButton{
				{{Text: BtnManagerPending}, {Text: BtnSubordinates}},
				{{Text: BtnSheetLink}},
			},
		}
	}
	return &telebot.ReplyMarkup{
		ResizeKeyboard: true,
		ReplyKeyboard: [][]telebot.ReplyButton{
			{{Text: BtnAddShift}},
			{{Text: BtnEditShift}},
			{{Text: BtnMyShifts}, {Text: BtnPendingShifts}},
			{{Text: BtnHelp}},
		},
	}
}

func skipCommentKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{
		ResizeKeyboard: true,
		ReplyKeyboard:  [][]telebot.ReplyButton{{{Text: app.SkipComment}}},
	}
}

func decisionKeyboard(shiftID int) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{
		InlineKeyboard: [][]telebot.InlineButton{{
			{Text: "Підтвердити", Data: fmt.Sprintf("%s:%d", callbackApprove, shiftID)},
			{Text: "Відхилити", Data: fmt.Sprintf("%s:%d", callbackDecline, shiftID)},
		}},
	}
}

func removeKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{RemoveKeyboard: true}
}
