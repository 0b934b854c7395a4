package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"food-order-backend/internal/events"
)

var (
	ordersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders placed",
		},
	)

	orderRevenueCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_revenue_cents_total",
			Help: "Sum of order totals at placement, in cents",
		},
	)

	orderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Total number of order status changes",
		},
		[]string{"from", "to"},
	)
)

// EventSink turns order events into Prometheus counters.
type EventSink struct{}

func (EventSink) Name() string { return "metrics" }

func (EventSink) Send(_ context.Context, e events.Event) error {
	switch e.Type {
	case events.TypeOrderCreated:
		ordersCreatedTotal.Inc()
		orderRevenueCents.Add(float64(e.TotalCents))
	case events.TypeOrderStatusChanged:
		orderTransitionsTotal.WithLabelValues(string(e.PreviousStatus), string(e.Status)).Inc()
	}
	return nil
}
