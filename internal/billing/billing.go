// Package billing is the boundary to the hosted payment provider: it creates
// checkout sessions for pending orders and verifies the provider's webhooks.
package billing

import (
	"context"
)

// MetadataOrderID is the session metadata key that correlates a payment
// back to an order.
const MetadataOrderID = "order_id"

// EventCheckoutSessionCompleted is the only event type that drives order state.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// Provider defines the interface for hosted checkout.
// Implementations can use Stripe or a test double.
type Provider interface {
	// CreateCheckoutSession creates a hosted payment page for one order.
	// Provider failures are returned as *GatewayError.
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)

	// ParseWebhook verifies the signature header against the raw payload
	// before decoding anything. Verification failures wrap
	// ErrInvalidWebhookSignature.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// LineItem is one row shown on the hosted payment page.
type LineItem struct {
	Name string

	// ImageURL is optional.
	ImageURL string

	// UnitAmount is in the smallest currency unit.
	UnitAmount int64

	Quantity int64
}

// CheckoutSessionParams contains parameters for creating a checkout session.
type CheckoutSessionParams struct {
	// OrderID is stored verbatim as session metadata and client reference.
	OrderID string

	// CustomerEmail prefills the payment page.
	CustomerEmail string

	// Currency code (ISO 4217), e.g. "usd". Empty uses the provider default.
	Currency string

	// LineItems must sum to the order total.
	LineItems []LineItem

	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a created hosted payment page.
type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a verified provider event.
type WebhookEvent struct {
	ID   string
	Type string

	// Session is set only for checkout.session.completed events.
	Session *CompletedSession
}

// CompletedSession carries the fields reconciliation needs from a completed
// checkout session.
type CompletedSession struct {
	ID string

	// OrderID is empty when the session was created outside the checkout flow.
	OrderID string

	// PaymentMethod is the first payment method type offered, e.g. "card".
	PaymentMethod string

	PaymentStatus string
	AmountTotal   int64
}
