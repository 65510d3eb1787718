// Package notify reports finished applications to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-openclaw-applier/internal/jobboard"
	"go-openclaw-applier/internal/models"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// Notify sends one message for a task in a terminal state.
func (t *Telegram) Notify(ctx context.Context, task models.ApplicationTask) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatTask(task))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", task.JobURL),
		),
	)

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatTask renders the MarkdownV2 body for a finished task.
func FormatTask(task models.ApplicationTask) string {
	var b strings.Builder
	switch task.Status {
	case models.StatusSucceeded:
		b.WriteString("✅ *Application submitted*\n")
	case models.StatusFailed:
		b.WriteString("❌ *Application failed*\n")
	default:
		fmt.Fprintf(&b, "ℹ️ *Application %s*\n", escapeMarkdown(string(task.Status)))
	}

	board, domain := jobboard.Describe(task.JobURL)
	if domain == "" {
		domain = "N/A"
	}
	fmt.Fprintf(&b, "🏢 %s \\(%s\\)\n", escapeMarkdown(domain), escapeMarkdown(string(board)))
	if name := task.Resume.Profile.Name; name != "" {
		fmt.Fprintf(&b, "👤 %s\n", escapeMarkdown(name))
	}
	if task.ErrorMessage != nil && *task.ErrorMessage != "" {
		fmt.Fprintf(&b, "⚠️ %s\n", escapeMarkdown(*task.ErrorMessage))
	}
	fmt.Fprintf(&b, "📝 %d log entries\n", len(task.Logs))
	fmt.Fprintf(&b, "🔖 `%s`", escapeMarkdown(task.ID))
	return b.String()
}
