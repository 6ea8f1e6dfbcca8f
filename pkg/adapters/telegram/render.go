package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ButtonsPerRow is the reply keyboard width.
const ButtonsPerRow = 2

// Render maps a step to the message sent to chatID.
func Render(chatID int64, step *domain.Step) tgbotapi.MessageConfig {
	in := step.Instruction

	switch in.Kind {
	case domain.InstructionPrompt:
		msg := tgbotapi.NewMessage(chatID, in.Text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if len(in.Options)+len(in.Navigation) == 0 {
			// Telegram rejects an empty reply keyboard.
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
			return msg
		}
		msg.ReplyMarkup = Keyboard(in.Options, in.Navigation)
		return msg

	case domain.InstructionCompletion:
		msg := tgbotapi.NewMessage(chatID, Summary(in.Header, in.Lines))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		return msg

	case domain.InstructionWelcome:
		msg := tgbotapi.NewMessage(chatID, in.Text)
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		return msg

	default:
		// Reprompt leaves the last keyboard in place.
		return tgbotapi.NewMessage(chatID, in.Text)
	}
}

// Keyboard lays options out in rows of ButtonsPerRow, navigation on a final row.
func Keyboard(options, navigation []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for start := 0; start < len(options); start += ButtonsPerRow {
		end := min(start+ButtonsPerRow, len(options))
		rows = append(rows, buttonRow(options[start:end]))
	}
	if len(navigation) > 0 {
		rows = append(rows, buttonRow(navigation))
	}

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func buttonRow(labels []string) []tgbotapi.KeyboardButton {
	row := make([]tgbotapi.KeyboardButton, len(labels))
	for i, l := range labels {
		row[i] = tgbotapi.NewKeyboardButton(l)
	}
	return row
}

// Summary renders a bold header followed by a numbered list, as HTML.
func Summary(header string, lines []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>", html.EscapeString(header))
	for i, line := range lines {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, html.EscapeString(line))
	}
	return sb.String()
}
