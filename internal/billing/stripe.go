package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"
)

const defaultCurrency = "usd"

// StripeProvider implements Provider using Stripe Checkout.
type StripeProvider struct {
	webhookSecret string
	currency      string

	// newSession is checkoutsession.New outside tests.
	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Compile-time check that StripeProvider implements Provider.
var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a Stripe billing provider. It sets the
// package-level Stripe key, so one provider is expected per process.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stripe.Key = cfg.APIKey

	currency := cfg.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return &StripeProvider{
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		newSession:    checkoutsession.New,
	}, nil
}

// CreateCheckoutSession creates a one-off payment session. The order id is
// written to both metadata and the client reference id.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	currency := params.Currency
	if currency == "" {
		currency = s.currency
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = []*string{stripe.String(item.ImageURL)}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		ClientReferenceID: stripe.String(params.OrderID),
		Metadata: map[string]string{
			MetadataOrderID: params.OrderID,
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				MetadataOrderID: params.OrderID,
			},
		},
	}
	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}

	session, err := s.newSession(sessionParams)
	if err != nil {
		return nil, newGatewayError(err)
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (s *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutSessionCompleted {
		return out, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	completed := &CompletedSession{
		ID:            session.ID,
		OrderID:       session.Metadata[MetadataOrderID],
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
	}
	if len(session.PaymentMethodTypes) > 0 {
		completed.PaymentMethod = session.PaymentMethodTypes[0]
	}
	out.Session = completed
	return out, nil
}
