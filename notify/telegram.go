package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trendwatch/report"
)

// Telegram sends reports to one chat via the Bot API.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authenticates the bot and wires the channel.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticating bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

// Name identifies the channel in logs.
func (t *Telegram) Name() string { return "telegram" }

// Format is the markup convention the channel expects.
func (t *Telegram) Format() report.Format { return report.FormatTelegram }

// Send delivers one HTML-formatted message.
func (t *Telegram) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: sending message: %w", err)
	}
	return nil
}
