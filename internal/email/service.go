package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/dukerupert/loomworks/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// ReasonNotConfigured marks sends skipped because no provider is set up.
const ReasonNotConfigured = "not configured"

// Config configures the notification service.
type Config struct {
	FromAddress   string
	FromName      string
	OperatorEmail string // empty disables operator notifications
	BaseURL       string
}

// Service handles email composition and sending
type Service struct {
	sender    Sender
	config    Config
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewService creates a new email service. A nil sender is valid and turns
// every send into a "not configured" no-op.
func NewService(sender Sender, config Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{
		OrderConfirmationEmail{}.TemplateName(),
		OperatorOrderEmail{}.TemplateName(),
	} {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Service{
		sender:    sender,
		config:    config,
		templates: templates,
		logger:    logger.With("service", "email"),
	}, nil
}

// Configured reports whether a sender is available.
func (s *Service) Configured() bool {
	return s.sender != nil
}

// SendOrderConfirmation sends the customer their receipt for a paid order.
func (s *Service) SendOrderConfirmation(ctx context.Context, order *domain.Order) Result {
	if !s.Configured() {
		return Result{Status: StatusSkipped, Reason: ReasonNotConfigured}
	}
	if order.CustomerEmail == "" {
		return Result{Status: StatusFailed, Err: ErrNoRecipient}
	}
	return s.send(ctx, order.CustomerEmail, NewOrderConfirmation(order, s.config.BaseURL))
}

// SendOperatorNotification tells the shop owner about a paid order.
func (s *Service) SendOperatorNotification(ctx context.Context, order *domain.Order) Result {
	if !s.Configured() {
		return Result{Status: StatusSkipped, Reason: ReasonNotConfigured}
	}
	if s.config.OperatorEmail == "" {
		return Result{Status: StatusSkipped, Reason: "no operator inbox"}
	}
	data := NewOperatorOrder(order, s.config.BaseURL)
	return s.send(ctx, s.config.OperatorEmail, data, order.CustomerEmail)
}

func (s *Service) send(ctx context.Context, to string, data EmailTemplate, replyTo ...string) Result {
	htmlBody, textBody, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}

	msg := &Email{
		To:       []string{to},
		From:     s.from(),
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if len(replyTo) > 0 {
		msg.ReplyTo = replyTo[0]
	}

	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("failed to send %s: %w", data.TemplateName(), err)}
	}

	s.logger.Debug("email sent", "template", data.TemplateName(), "message_id", id)
	return Result{Status: StatusSent, MessageID: id}
}

func (s *Service) from() string {
	if s.config.FromName == "" {
		return s.config.FromAddress
	}
	return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
}

func (s *Service) renderTemplate(templateName string, data interface{}) (string, string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", "", errTemplateNotFound(templateName)
	}

	var htmlBuf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBuf, "email_layout", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

var templateFuncs = template.FuncMap{
	"money": FormatCents,
}

// FormatCents renders minor units as dollars, e.g. 9500 -> "$95.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := html

	for _, tag := range []string{"<br>", "<br/>", "<br />", "</div>", "</tr>"} {
		text = strings.ReplaceAll(text, tag, "\n")
	}
	for _, tag := range []string{"</p>", "</h1>", "</h2>", "</h3>", "</table>"} {
		text = strings.ReplaceAll(text, tag, "\n\n")
	}
	text = strings.ReplaceAll(text, "</td>", " ")

	for {
		start := strings.Index(text, "<")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], ">")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+end+1:]
	}

	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#34;", "\"",
		"&#39;", "'",
	).Replace(text)

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
