package notify

import (
	"context"
	"fmt"

	"eventnest/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender is the subset of the bot API the channel needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel pushes notifications to users who linked a telegram chat.
// Users without a chat mapping are skipped, not failed.
type TelegramChannel struct {
	bot    TelegramSender
	chats  map[int64]int64 // user id -> chat id
	logger *zerolog.Logger
}

func NewTelegramChannel(bot TelegramSender, chats map[int64]int64, logger *zerolog.Logger) *TelegramChannel {
	return &TelegramChannel{bot: bot, chats: chats, logger: logger}
}

// NewTelegramBot dials the bot API with the given token.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return bot, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Deliver(ctx context.Context, userID int64, payload worker.DeliveryPayload) error {
	chatID, ok := c.chats[userID]
	if !ok {
		c.logger.Debug().Int64("user_id", userID).Msg("no telegram chat linked, skipping")
		return nil
	}

	text := payload.Title
	if payload.Body != "" {
		text += "\n" + payload.Body
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

var _ worker.Channel = (*TelegramChannel)(nil)
