package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"eshop/config"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
	breaker       *gobreaker.CircuitBreaker
}

func NewStripe(cfg config.Stripe) *Stripe {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &Stripe{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		breaker:       newBreaker("stripe"),
	}
}

// CreateCheckoutSession opens a hosted payment page charging the whole
// amount as a single line item.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(req.CustomerName)},
				UnitAmount:  stripe.Int64(MinorUnits(req.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		ClientReferenceID: stripe.String(req.ClientReference),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := ExecuteWithBreaker(s.breaker, func() (*stripe.CheckoutSession, error) {
		return s.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &Session{
		ID:              sess.ID,
		URL:             sess.URL,
		AmountTotal:     sess.AmountTotal,
		Currency:        string(sess.Currency),
		ClientReference: sess.ClientReferenceID,
		CustomerEmail:   req.CustomerEmail,
		Metadata:        sess.Metadata,
	}, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.PaymentStatus = string(sess.PaymentStatus)
		out.ClientReference = sess.ClientReferenceID
		out.AmountTotal = sess.AmountTotal
		out.Metadata = sess.Metadata
		if sess.CustomerDetails != nil {
			out.CustomerEmail = sess.CustomerDetails.Email
		}
	case stripe.EventTypeChargeSucceeded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if charge.Paid {
			out.PaymentStatus = StatusPaid
		}
		out.AmountTotal = charge.Amount
		out.Metadata = charge.Metadata
		if charge.BillingDetails != nil {
			out.CustomerEmail = charge.BillingDetails.Email
		}
	}

	return out, nil
}
