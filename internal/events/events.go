// Package events publishes order lifecycle events to other systems.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectOrderPaid is the default subject for payment confirmations.
const SubjectOrderPaid = "orders.paid"

// flushTimeout bounds the server ack when the caller's context has no
// deadline. nats refuses to flush without one.
const flushTimeout = 5 * time.Second

// OrderPaid is published once an order's payment is confirmed.
type OrderPaid struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	Total         int64     `json:"total"`
	ItemCount     int       `json:"itemCount"`
	PaymentMethod string    `json:"paymentMethod"`
	PaidAt        time.Time `json:"paidAt"`
}

// Publisher delivers events.
type Publisher interface {
	PublishOrderPaid(ctx context.Context, event OrderPaid) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPaid(context.Context, OrderPaid) error { return nil }

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSPublisher publishes JSON events to a NATS subject.
type NATSPublisher struct {
	nc      conn
	raw     *nats.Conn
	subject string
}

// NewNATSPublisher connects to url. An empty subject uses SubjectOrderPaid.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("loomworks"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	if subject == "" {
		subject = SubjectOrderPaid
	}
	return &NATSPublisher{nc: nc, raw: nc, subject: subject}, nil
}

// PublishOrderPaid publishes the event and waits for the server to
// acknowledge the flush.
func (p *NATSPublisher) PublishOrderPaid(ctx context.Context, event OrderPaid) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode order paid: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", p.subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.raw == nil {
		return nil
	}
	return p.raw.Drain()
}
