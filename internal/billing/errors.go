package billing

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v83"
)

var (
	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrMalformedEvent is returned when a verified event cannot be decoded.
	ErrMalformedEvent = errors.New("billing: malformed event payload")

	// ErrInvalidAPIKey is returned when Stripe API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")
)

// GatewayError wraps a provider failure during session creation. Message is
// the provider's own text and must only be logged.
type GatewayError struct {
	Message       string // Provider error message
	Code          string // Stripe error code (e.g., "rate_limit")
	StatusCode    int    // HTTP status code from Stripe
	RequestID     string // Stripe request ID for debugging
	OriginalError error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.OriginalError
}

// IsTemporary returns true if error is likely transient and retryable.
func (e *GatewayError) IsTemporary() bool {
	return e.Code == "rate_limit" || e.Code == "api_connection_error" || e.StatusCode >= 500
}

// newGatewayError extracts Stripe's error details when present.
func newGatewayError(err error) *GatewayError {
	gerr := &GatewayError{Message: err.Error(), OriginalError: err}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		gerr.Message = stripeErr.Msg
		gerr.Code = string(stripeErr.Code)
		gerr.StatusCode = stripeErr.HTTPStatusCode
		gerr.RequestID = stripeErr.RequestID
	}
	return gerr
}
