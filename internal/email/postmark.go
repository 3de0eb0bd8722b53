package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PostmarkEndpoint is the Postmark single-message API.
const PostmarkEndpoint = "https://api.postmarkapp.com/email"

// PostmarkSender implements the Sender interface using Postmark API
type PostmarkSender struct {
	serverToken   string
	messageStream string
	endpoint      string
	client        *http.Client
}

type postmarkEmail struct {
	From          string           `json:"From"`
	To            string           `json:"To"`
	ReplyTo       string           `json:"ReplyTo,omitempty"`
	Subject       string           `json:"Subject"`
	HtmlBody      string           `json:"HtmlBody,omitempty"`
	TextBody      string           `json:"TextBody,omitempty"`
	Headers       []postmarkHeader `json:"Headers,omitempty"`
	MessageStream string           `json:"MessageStream,omitempty"`
}

type postmarkHeader struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type postmarkResponse struct {
	To        string `json:"To"`
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// NewPostmarkSender creates a Postmark sender on the transactional
// "outbound" stream.
func NewPostmarkSender(serverToken string) *PostmarkSender {
	return &PostmarkSender{
		serverToken:   serverToken,
		messageStream: "outbound",
		endpoint:      PostmarkEndpoint,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEndpoint points the sender at another API base, used in tests.
func (p *PostmarkSender) WithEndpoint(endpoint string) *PostmarkSender {
	p.endpoint = endpoint
	return p
}

// Send sends an email via Postmark
func (p *PostmarkSender) Send(ctx context.Context, email *Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrNoRecipient
	}

	payload := postmarkEmail{
		From:          email.From,
		To:            strings.Join(email.To, ","),
		ReplyTo:       email.ReplyTo,
		Subject:       email.Subject,
		HtmlBody:      email.HTMLBody,
		TextBody:      email.TextBody,
		MessageStream: p.messageStream,
	}
	for name, value := range email.Headers {
		payload.Headers = append(payload.Headers, postmarkHeader{Name: name, Value: value})
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.serverToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result postmarkResponse
	if resp.StatusCode != http.StatusOK {
		detail := string(body)
		if json.Unmarshal(body, &result) == nil && result.Message != "" {
			detail = result.Message
		}
		return "", &ProviderError{Provider: "postmark", Status: resp.StatusCode, Detail: detail}
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if result.ErrorCode != 0 {
		return "", &ProviderError{Provider: "postmark", Status: resp.StatusCode, Detail: result.Message}
	}

	return result.MessageID, nil
}
