package notificator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
)

const telegramTimeout = 10 * time.Second

type TelegramNotificator struct {
	bot    *bot.Bot
	chatID string
}

// NewTelegramNotificator validates the token against the Bot API and returns a
// sender posting to chatID. Updates are not polled: the bot only speaks.
func NewTelegramNotificator(token, chatID string) (*TelegramNotificator, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotificator{bot: b, chatID: chatID}, nil
}

func (t *TelegramNotificator) Name() string {
	return "telegram"
}

func (t *TelegramNotificator) Send(message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), telegramTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   message,
	}
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
