// Package events carries order lifecycle notifications to the log, Kafka and the live admin feed.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/models"
)

const (
	OrderPlaced    = "order.placed"
	OrderDelivered = "order.delivered"
)

type Event struct {
	Type        string                 `json:"type"`
	OrderID     string                 `json:"orderId"`
	UserID      string                 `json:"userId"`
	Status      models.OrderStatus     `json:"orderStatus"`
	TotalAmount decimal.Decimal        `json:"totalAmount"`
	Items       []models.OrderLineItem `json:"items"`
	DeliveredAt *time.Time             `json:"deliveredAt,omitempty"`
	OccurredAt  time.Time              `json:"occurredAt"`
}

// FromOrder snapshots an order into an event of the given type.
func FromOrder(eventType string, o *models.Order) Event {
	return Event{
		Type:        eventType,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Status:      o.OrderStatus,
		TotalAmount: o.TotalAmount,
		Items:       o.Items,
		DeliveredAt: o.DeliveredAt,
		OccurredAt:  time.Now().UTC(),
	}
}

type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every sink. All sinks are attempted; their errors are joined.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
