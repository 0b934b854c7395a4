package events

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts a short message about each event to a staff chat.
type TelegramSink struct {
	bot    messageSender
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramSink{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, FormatMessage(e))
	_, err := s.bot.Send(msg)
	return err
}

func FormatMessage(e Event) string {
	var b strings.Builder
	switch e.Type {
	case TypeOrderCreated:
		fmt.Fprintf(&b, "New order %s\n", e.OrderNumber)
		fmt.Fprintf(&b, "Total: %s", formatCents(e.TotalCents))
	case TypeOrderStatusChanged:
		fmt.Fprintf(&b, "Order %s: %s -> %s", e.OrderNumber, e.PreviousStatus, e.Status)
	default:
		fmt.Fprintf(&b, "Order %s: %s", e.OrderNumber, e.Type)
	}
	return b.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
