package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates hosted checkout without calling Stripe API.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)

	// ParseWebhookFunc allows customizing webhook verification behavior
	ParseWebhookFunc func(payload []byte, signature string) (*WebhookEvent, error)

	// Sessions stores the params of created sessions by session id
	Sessions map[string]CheckoutSessionParams

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// Compile-time check that MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]CheckoutSessionParams),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession creates a mock checkout session.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%s)", params.OrderID))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	id := "cs_test_" + uuid.NewString()
	m.Sessions[id] = params
	return &CheckoutSession{
		ID:  id,
		URL: "https://checkout.stripe.test/pay/" + id,
	}, nil
}

// ParseWebhook rejects every payload unless ParseWebhookFunc is set.
func (m *MockProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, "ParseWebhook")

	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(payload, signature)
	}
	return nil, ErrInvalidWebhookSignature
}

// CompletedEvent builds a checkout.session.completed event for orderID.
func CompletedEvent(eventID, orderID, paymentMethod string) *WebhookEvent {
	return &WebhookEvent{
		ID:   eventID,
		Type: EventCheckoutSessionCompleted,
		Session: &CompletedSession{
			ID:            "cs_" + eventID,
			OrderID:       orderID,
			PaymentMethod: paymentMethod,
			PaymentStatus: "paid",
		},
	}
}
