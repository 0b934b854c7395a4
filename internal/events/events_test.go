package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"food-order-backend/internal/models"
)

type recordingSink struct {
	mu     sync.Mutex
	name   string
	err    error
	events []Event
	calls  int
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func TestDispatcher_FansOut(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	d := NewDispatcher(a, b)

	order := &models.Order{OrderNumber: "ABCDEFGH12", Status: models.StatusPending, TotalCents: 1234}
	d.Publish(context.Background(), OrderCreated(order))
	d.Wait()

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	require.Equal(t, TypeOrderCreated, a.events[0].Type)
	require.Equal(t, "ABCDEFGH12", b.events[0].OrderNumber)
}

func TestDispatcher_FailingSinkIsIsolated(t *testing.T) {
	bad := &recordingSink{name: "bad", err: errors.New("unreachable")}
	good := &recordingSink{name: "good"}
	d := NewDispatcher(bad, good)

	for i := 0; i < 5; i++ {
		d.Publish(context.Background(), Event{Type: TypeOrderCreated, OrderNumber: "X"})
		d.Wait()
	}

	require.Len(t, good.events, 5)
	// breaker opens after three failures
	require.Equal(t, 3, bad.calls)
}

func TestStatusChanged(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	order := &models.Order{OrderNumber: "N1", TotalCents: 500}
	e := StatusChanged(order, &models.OrderStatusEvent{
		FromStatus: models.StatusPending,
		ToStatus:   models.StatusConfirmed,
		At:         at,
	})

	require.Equal(t, TypeOrderStatusChanged, e.Type)
	require.Equal(t, models.StatusConfirmed, e.Status)
	require.Equal(t, models.StatusPending, e.PreviousStatus)
	require.Equal(t, at, e.At)
}

func TestFormatMessage(t *testing.T) {
	require.Equal(t, "New order ABC\nTotal: $12.05",
		FormatMessage(Event{Type: TypeOrderCreated, OrderNumber: "ABC", TotalCents: 1205}))
	require.Equal(t, "Order ABC: PENDING -> READY",
		FormatMessage(Event{Type: TypeOrderStatusChanged, OrderNumber: "ABC", PreviousStatus: models.StatusPending, Status: models.StatusReady}))
}

type fakeBot struct {
	sent []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramSink_Send(t *testing.T) {
	bot := &fakeBot{}
	s := &TelegramSink{bot: bot, chatID: 42}

	require.NoError(t, s.Send(context.Background(), Event{Type: TypeOrderCreated, OrderNumber: "ABC", TotalCents: 100}))
	require.Len(t, bot.sent, 1)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, int64(42), msg.ChatID)
	require.Contains(t, msg.Text, "ABC")
}
