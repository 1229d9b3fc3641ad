// Package notify tells organisers about new registrations.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/terra-clan/symposium-registry/internal/models"
)

// Notifier is called after a registration is stored. Failures never affect the registrant.
type Notifier interface {
	RegistrationCreated(ctx context.Context, s models.RegistrationSummary) error
}

// Nop discards notifications
type Nop struct{}

func (Nop) RegistrationCreated(context.Context, models.RegistrationSummary) error { return nil }

// sender is the part of tgbotapi.BotAPI we use
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a message to the organisers' chat
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram authenticates the bot token
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	slog.Info("telegram notifier ready", "bot", bot.Self.UserName, "chat_id", chatID)
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// RegistrationCreated sends a one-message summary of the registration
func (t *Telegram) RegistrationCreated(ctx context.Context, s models.RegistrationSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, Format(s))
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Format renders a registration as plain text
func Format(s models.RegistrationSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New %s registration\n", s.Variant)
	fmt.Fprintf(&b, "%s (year %s)\n", s.Name, s.Year)
	fmt.Fprintf(&b, "%s / %s\n", s.Email, s.Phone)

	switch {
	case s.CollegeName != "":
		fmt.Fprintf(&b, "%s, %s\n", s.CollegeName, s.Department)
	case s.Section != "":
		fmt.Fprintf(&b, "%s, section %s\n", s.RegisterNumber, s.Section)
	case s.RegisterNumber != "":
		fmt.Fprintf(&b, "%s, %s\n", s.RegisterNumber, s.Department)
	}

	if len(s.SelectedEvents) > 0 {
		fmt.Fprintf(&b, "Events: %s\n", strings.Join(s.SelectedEvents, ", "))
	}
	if s.PaymentScreenshotURL != "" {
		fmt.Fprintf(&b, "Payment proof: %s\n", s.PaymentScreenshotURL)
	}
	return strings.TrimRight(b.String(), "\n")
}
