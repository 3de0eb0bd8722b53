package email

import "context"

// Email represents an email message to be sent.
type Email struct {
	To       []string          // Recipient email addresses
	From     string            // Sender, "Name <addr>" or bare address
	ReplyTo  string            // Optional
	Subject  string            // Email subject
	TextBody string            // Plain text body
	HTMLBody string            // HTML body (optional)
	Headers  map[string]string // Custom headers (optional)
}

// Sender defines the interface for sending emails.
// Implementations can use SMTP, Postmark, etc.
type Sender interface {
	// Send sends an email message.
	// Returns the message ID from the email provider (if available).
	Send(ctx context.Context, email *Email) (string, error)
}

// Status is the outcome of a best-effort send.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result reports what happened to a notification. Transactional sends never
// return an error; callers inspect the result and log.
type Result struct {
	Status    Status
	MessageID string
	Reason    string // why the send was skipped, e.g. "not configured"
	Err       error
}

// Sent reports whether the provider accepted the message.
func (r Result) Sent() bool {
	return r.Status == StatusSent
}
