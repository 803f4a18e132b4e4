package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeTelegramSender struct {
	sent tgbotapi.Chattable
	err  error
}

func (f *fakeTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = c
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	return tgbotapi.Message{MessageID: 7}, nil
}

func TestTelegramNotifierSendsFormattedReport(t *testing.T) {
	fake := &fakeTelegramSender{}
	sink := &telegramNotifier{id: "tg", chatID: 42, bot: fake}

	report := Report{Job: "archiver", Processed: 3, Changed: 1, Failed: 1, Notes: []string{"2 paywalled entries replaced"}}
	if err := sink.Notify(context.Background(), report); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	msg, ok := fake.sent.(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", fake.sent)
	}
	if msg.ChatID != 42 {
		t.Fatalf("ChatID = %d", msg.ChatID)
	}
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("ParseMode = %q", msg.ParseMode)
	}
	if !strings.Contains(msg.Text, "archiver") {
		t.Fatalf("message missing job name: %s", msg.Text)
	}
	if !strings.Contains(msg.Text, "processed 3, changed 1, skipped 0, failed 1") {
		t.Fatalf("message missing counters: %s", msg.Text)
	}
	if !strings.Contains(msg.Text, "2 paywalled entries replaced") {
		t.Fatalf("message missing note: %s", msg.Text)
	}
}

func TestTelegramNotifierEscapesMarkup(t *testing.T) {
	fake := &fakeTelegramSender{}
	sink := &telegramNotifier{id: "tg", chatID: 42, bot: fake}

	report := Report{Job: "labeler", Notes: []string{"<script>alert(1)</script>"}}
	if err := sink.Notify(context.Background(), report); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	msg := fake.sent.(tgbotapi.MessageConfig)
	if strings.Contains(msg.Text, "<script>") {
		t.Fatalf("note markup not escaped: %s", msg.Text)
	}
}

func TestTelegramNotifierSendError(t *testing.T) {
	fake := &fakeTelegramSender{err: errors.New("boom")}
	sink := &telegramNotifier{id: "tg", chatID: 42, bot: fake}

	if err := sink.Notify(context.Background(), Report{Job: "labeler"}); err == nil {
		t.Fatalf("expected error from Notify")
	}
}

func TestTelegramNotifierDryRunMarker(t *testing.T) {
	fake := &fakeTelegramSender{}
	sink := &telegramNotifier{id: "tg", chatID: 42, bot: fake}

	if err := sink.Notify(context.Background(), Report{Job: "importer", DryRun: true}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	msg := fake.sent.(tgbotapi.MessageConfig)
	if !strings.Contains(msg.Text, "(dry run)") {
		t.Fatalf("dry run marker missing: %s", msg.Text)
	}
}
