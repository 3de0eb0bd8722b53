package email

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipient is returned when a message, or the order it is about,
	// has no address to send to.
	ErrNoRecipient = errors.New("email: no recipient")

	// ErrInvalidAddress wraps a From, To or Reply-To the mailer rejected.
	ErrInvalidAddress = errors.New("email: invalid address")
)

// ProviderError is a message the delivery provider refused.
type ProviderError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email: %s rejected message (status %d): %s", e.Provider, e.Status, e.Detail)
}

func errTemplateNotFound(name string) error {
	return fmt.Errorf("email: template %q not found", name)
}
