// Package payment talks to the card payment provider: hosted checkout
// sessions out, signed webhook events in.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventChargeSucceeded   = "charge.succeeded"

	StatusPaid = "paid"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CheckoutRequest struct {
	CustomerName    string
	CustomerEmail   string
	ClientReference string
	Amount          decimal.Decimal
	Metadata        map[string]string
	SuccessURL      string
	CancelURL       string
}

type Session struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	ClientReference string            `json:"client_reference_id"`
	CustomerEmail   string            `json:"customer_email"`
	Metadata        map[string]string `json:"metadata"`
}

// Event is the part of a provider webhook the order flow needs.
type Event struct {
	Type            string
	PaymentStatus   string
	ClientReference string
	CustomerEmail   string
	AmountTotal     int64
	Metadata        map[string]string
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// MinorUnits converts an amount to the provider's smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromMinorUnits(units int64) float64 {
	return decimal.New(units, -2).InexactFloat64()
}
