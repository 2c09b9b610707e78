// Package notify pushes admin alerts (new activations, withdrawal requests)
// to a Telegram chat. Delivery is best effort: a failed send is logged and
// dropped, never retried and never surfaced to the request that caused it.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier satisfies the service layer's Notifier interface.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier connects the bot. An empty token is not an error here;
// callers should fall back to the no-op notifier instead.
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// Notify sends the message to the configured chat.
func (t *TelegramNotifier) Notify(ctx context.Context, message string) {
	msg := tgbotapi.NewMessage(t.chatID, message)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn("telegram notification failed", slog.String("error", err.Error()))
	}
}
