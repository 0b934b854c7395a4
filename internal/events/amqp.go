package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const Exchange = "order_events"

// confirmation is the broker's pending answer for one published message.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type confirmPublisher interface {
	publish(ctx context.Context, key string, msg amqp.Publishing) (confirmation, error)
}

type channelPublisher struct {
	ch *amqp.Channel
}

func (p channelPublisher) publish(ctx context.Context, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, Exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

// AMQPSink publishes events to a durable topic exchange, routed by event type,
// and waits for the broker to confirm each message. Every publish carries its
// own delivery tag, so a confirm that arrives after its sender gave up is
// never taken for a later message's.
type AMQPSink struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	pub  confirmPublisher
	now  func() time.Time
}

func DialAMQP(url string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", Exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &AMQPSink{conn: conn, ch: ch, pub: channelPublisher{ch: ch}, now: time.Now}, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Send(ctx context.Context, e Event) error {
	if s.conn != nil && s.conn.IsClosed() {
		return errors.New("amqp connection is closed")
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conf, err := s.pub.publish(ctx, e.Type, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    s.now(),
		Type:         e.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", e.Type, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: NACK from broker", e.Type)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	var errs []error
	if s.ch != nil {
		errs = append(errs, s.ch.Close())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}
