package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

const smtpTimeout = 30 * time.Second

// SMTPConfig holds SMTP connection parameters. Username and Password may be
// empty for relays that accept unauthenticated mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender delivers mail through an SMTP relay. Port 465 uses implicit
// TLS, 587 requires STARTTLS and any other port upgrades when offered.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

func NewSMTPSender(config SMTPConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{config: config, logger: logger.With("sender", "smtp")}
}

// Send delivers email and returns the generated Message-ID.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg, err := buildMessage(email)
	if err != nil {
		return "", err
	}

	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("smtp delivery failed",
			"error", err,
			"host", s.config.Host,
			"subject", email.Subject,
		)
		return "", fmt.Errorf("smtp send: %w", err)
	}

	if ids := msg.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

func buildMessage(email *Email) (*mail.Msg, error) {
	if len(email.To) == 0 {
		return nil, ErrNoRecipient
	}

	msg := mail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return nil, fmt.Errorf("%w: from %q: %v", ErrInvalidAddress, email.From, err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrInvalidAddress, err)
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, fmt.Errorf("%w: reply-to %q: %v", ErrInvalidAddress, email.ReplyTo, err)
		}
	}
	msg.Subject(email.Subject)

	switch {
	case email.HTMLBody == "":
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	case email.TextBody == "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	}

	for k, v := range email.Headers {
		msg.SetGenHeader(mail.Header(k), v)
	}
	msg.SetMessageID()
	return msg, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(smtpTimeout),
	}

	switch s.config.Port {
	case 465:
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}
	return opts
}
