// Package events publishes order lifecycle events to interested consumers.
package events

import (
	"context"
	"errors"
	"time"

	"eshop/models"
)

const (
	OrderCreated   = "order.created"
	OrderPaid      = "order.paid"
	OrderDelivered = "order.delivered"
)

type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       uint      `json:"orderId"`
	UserID        uint      `json:"userId"`
	Items         int       `json:"items"`
	Total         float64   `json:"totalOrderPrice"`
	PaymentMethod string    `json:"paymentMethodType"`
	IsPaid        bool      `json:"isPaid"`
	IsDelivered   bool      `json:"isDelivered"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func NewOrderEvent(kind string, order *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:          kind,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Items:         len(order.Items),
		Total:         order.TotalOrderPrice,
		PaymentMethod: order.PaymentMethodType,
		IsPaid:        order.IsPaid,
		IsDelivered:   order.IsDelivered,
		OccurredAt:    at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
