package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"food-order-backend/internal/models"
)

type pendingConfirm struct {
	acked chan bool
}

func (c *pendingConfirm) WaitContext(ctx context.Context) (bool, error) {
	select {
	case ok := <-c.acked:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type fakeBroker struct {
	mu       sync.Mutex
	keys     []string
	messages []amqp.Publishing
	pending  []*pendingConfirm
}

func (b *fakeBroker) publish(_ context.Context, key string, msg amqp.Publishing) (confirmation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &pendingConfirm{acked: make(chan bool, 1)}
	b.keys = append(b.keys, key)
	b.messages = append(b.messages, msg)
	b.pending = append(b.pending, c)
	return c, nil
}

func (b *fakeBroker) confirm(i int, ack bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[i].acked <- ack
}

func newTestSink(b *fakeBroker) *AMQPSink {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &AMQPSink{pub: b, now: func() time.Time { return at }}
}

func TestAMQPSink_Publishes(t *testing.T) {
	b := &fakeBroker{}
	sink := newTestSink(b)

	order := &models.Order{OrderNumber: "ABCDEFGH12", Status: models.StatusPending, TotalCents: 1350}
	done := make(chan error, 1)
	go func() { done <- sink.Send(context.Background(), OrderCreated(order)) }()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.pending) == 1
	}, time.Second, time.Millisecond)
	b.confirm(0, true)
	require.NoError(t, <-done)

	require.Equal(t, []string{TypeOrderCreated}, b.keys)
	msg := b.messages[0]
	require.Equal(t, amqp.Persistent, msg.DeliveryMode)
	require.Equal(t, "application/json", msg.ContentType)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	require.Equal(t, "ABCDEFGH12", got.OrderNumber)
}

func TestAMQPSink_LateConfirmStaysWithItsMessage(t *testing.T) {
	b := &fakeBroker{}
	sink := newTestSink(b)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := sink.Send(ctx, Event{Type: TypeOrderCreated, OrderNumber: "FIRST00000"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The first message's ack arrives after its sender timed out.
	b.confirm(0, true)

	done := make(chan error, 1)
	go func() {
		done <- sink.Send(context.Background(), Event{Type: TypeOrderStatusChanged, OrderNumber: "SECOND0000"})
	}()
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.pending) == 2
	}, time.Second, time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("second send returned before its own confirm: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	b.confirm(1, false)
	require.ErrorContains(t, <-done, "NACK")
}
