package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramSender is the slice of tgbotapi.BotAPI the notifier depends on.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// telegramNotifier delivers run reports to a Telegram chat.
type telegramNotifier struct {
	id     string
	chatID int64
	bot    telegramSender
}

func newTelegramNotifier(_ context.Context, cfg SinkConfig, _ Logger) (Notifier, error) {
	if cfg.Telegram == nil {
		return nil, fmt.Errorf("notifier %q missing telegram configuration", cfg.ID)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	return &telegramNotifier{
		id:     cfg.ID,
		chatID: cfg.Telegram.ChatID,
		bot:    bot,
	}, nil
}

func (t *telegramNotifier) ID() string   { return t.id }
func (t *telegramNotifier) Type() string { return TypeTelegram }

func (t *telegramNotifier) Notify(_ context.Context, report Report) error {
	msg := tgbotapi.NewMessage(t.chatID, formatReportMessage(report))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// formatReportMessage renders the run report with HTML formatting.
func formatReportMessage(report Report) string {
	var b strings.Builder
	b.WriteString("🧹 <b>")
	b.WriteString(html.EscapeString(report.Job))
	b.WriteString("</b>")
	if report.DryRun {
		b.WriteString(" (dry run)")
	}
	b.WriteString(fmt.Sprintf(" finished in %s\n", report.Duration().Round(time.Second)))
	b.WriteString(fmt.Sprintf("processed %d, changed %d, skipped %d, failed %d",
		report.Processed, report.Changed, report.Skipped, report.Failed))
	for _, note := range report.Notes {
		b.WriteString("\n• ")
		b.WriteString(html.EscapeString(note))
	}
	return b.String()
}
