package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"food-order-backend/internal/models"
	"food-order-backend/internal/resilience"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

type Event struct {
	Type           string             `json:"type"`
	OrderNumber    string             `json:"order_number"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	TotalCents     int64              `json:"total_cents"`
	At             time.Time          `json:"at"`
}

func OrderCreated(o *models.Order) Event {
	return Event{
		Type:        TypeOrderCreated,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalCents:  o.TotalCents,
		At:          o.CreatedAt,
	}
}

func StatusChanged(o *models.Order, e *models.OrderStatusEvent) Event {
	return Event{
		Type:           TypeOrderStatusChanged,
		OrderNumber:    o.OrderNumber,
		Status:         e.ToStatus,
		PreviousStatus: e.FromStatus,
		TotalCents:     o.TotalCents,
		At:             e.At,
	}
}

// Sink is a destination for order events.
type Sink interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

type guardedSink struct {
	sink    Sink
	breaker *resilience.CircuitBreaker
}

// Dispatcher fans events out to every sink in the background. A failing sink is
// isolated by its own circuit breaker and never affects the caller.
type Dispatcher struct {
	sinks   []guardedSink
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	d := &Dispatcher{timeout: 10 * time.Second}
	for _, s := range sinks {
		d.sinks = append(d.sinks, guardedSink{
			sink:    s,
			breaker: resilience.NewCircuitBreaker(s.Name(), 3, 30*time.Second),
		})
	}
	return d
}

func (d *Dispatcher) Publish(ctx context.Context, e Event) {
	ctx = context.WithoutCancel(ctx)
	for _, gs := range d.sinks {
		d.wg.Add(1)
		go func(gs guardedSink) {
			defer d.wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			err := gs.breaker.Do(func() error {
				return gs.sink.Send(sendCtx, e)
			})
			if err != nil {
				slog.Error("Event delivery failed", "sink", gs.sink.Name(), "type", e.Type, "order_number", e.OrderNumber, "error", err)
			}
		}(gs)
	}
}

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// LogSink writes events to the structured log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Send(ctx context.Context, e Event) error {
	slog.InfoContext(ctx, "Order event",
		"type", e.Type,
		"order_number", e.OrderNumber,
		"status", e.Status,
		"previous_status", e.PreviousStatus,
	)
	return nil
}
