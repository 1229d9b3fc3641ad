package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/symposium-registry/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func outerSummary() models.RegistrationSummary {
	return models.RegistrationSummary{
		Variant:              models.VariantOuter,
		Name:                 "Jane Doe",
		Email:                "jane@example.com",
		Phone:                "9876543210",
		Year:                 "2",
		CollegeName:          "XYZ",
		Department:           "CSE",
		PaymentScreenshotURL: "http://localhost/uploads/a.png",
	}
}

func TestFormat(t *testing.T) {
	want := "New outer registration\n" +
		"Jane Doe (year 2)\n" +
		"jane@example.com / 9876543210\n" +
		"XYZ, CSE\n" +
		"Payment proof: http://localhost/uploads/a.png"
	assert.Equal(t, want, Format(outerSummary()))

	dept := models.RegistrationSummary{
		Variant:        models.VariantDepartment,
		Name:           "Meena",
		Year:           "1",
		RegisterNumber: "24CS101",
		Section:        "C",
		SelectedEvents: []string{"tech-quiz", "connexions"},
	}
	assert.Contains(t, Format(dept), "24CS101, section C")
	assert.Contains(t, Format(dept), "Events: tech-quiz, connexions")
}

func TestTelegramSends(t *testing.T) {
	fake := &fakeSender{}
	tg := &Telegram{bot: fake, chatID: 42}

	require.NoError(t, tg.RegistrationCreated(context.Background(), outerSummary()))
	require.Len(t, fake.sent, 1)

	msg, ok := fake.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "Jane Doe")
}

func TestTelegramSendError(t *testing.T) {
	tg := &Telegram{bot: &fakeSender{err: errors.New("bad gateway")}, chatID: 42}
	assert.ErrorContains(t, tg.RegistrationCreated(context.Background(), outerSummary()), "bad gateway")
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.RegistrationCreated(context.Background(), outerSummary()))
}
