package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the order pipeline.
// Every recording method is safe on a nil receiver so code paths run
// unchanged when metrics are disabled.
type BusinessMetrics struct {
	// Orders
	OrdersCreated  *prometheus.CounterVec
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram
	StatusChanges  *prometheus.CounterVec

	// Checkout
	CheckoutSessions *prometheus.CounterVec
	StripeAPILatency *prometheus.HistogramVec

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookDuplicate prometheus.Counter
	WebhookFailed    *prometheus.CounterVec

	// Reconciliation side effects
	PaymentsConfirmed   prometheus.Counter
	RevenueCollected    prometheus.Counter
	StockDecrements     *prometheus.CounterVec
	EventsPublishFailed prometheus.Counter
	EmailSent           *prometheus.CounterVec
	EmailFailed         *prometheus.CounterVec
	EmailSkipped        *prometheus.CounterVec
}

// NewBusinessMetrics creates business metrics and registers them with reg.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "loomworks"
	}
	factory := promauto.With(reg)
	subsystem := "business"

	return &BusinessMetrics{
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total pending orders created at checkout",
			},
			[]string{"shipping_option"},
		),
		OrderValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_cents",
				Help:      "Order totals in minor currency units",
				Buckets:   []float64{1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Units per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20},
			},
		),
		StatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_status_changes_total",
				Help:      "Admin status changes by target status",
			},
			[]string{"status"},
		),
		CheckoutSessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_sessions_total",
				Help:      "Hosted checkout session attempts",
			},
			[]string{"result"}, // created, gateway_error, unavailable
		),
		StripeAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_duration_seconds",
				Help:      "Stripe API call duration",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhooks_received_total",
				Help:      "Verified webhook events by type",
			},
			[]string{"event_type"},
		),
		WebhookDuplicate: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhooks_duplicate_total",
				Help:      "Webhook events acknowledged without processing because they were already handled",
			},
		),
		WebhookFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhooks_failed_total",
				Help:      "Webhook requests rejected or failed",
			},
			[]string{"reason"}, // signature, malformed, persistence
		),
		PaymentsConfirmed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payments_confirmed_total",
				Help:      "Orders moved to paid by reconciliation",
			},
		),
		RevenueCollected: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "revenue_collected_cents_total",
				Help:      "Sum of confirmed order totals in minor units",
			},
		),
		StockDecrements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_decrements_total",
				Help:      "Per-line stock adjustments by outcome",
			},
			[]string{"result"}, // applied, already_applied, failed
		),
		EventsPublishFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_publish_failed_total",
				Help:      "Order events that could not be published",
			},
		),
		EmailSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_sent_total",
				Help:      "Total emails sent by type",
			},
			[]string{"email_type"},
		),
		EmailFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_failed_total",
				Help:      "Total email delivery failures",
			},
			[]string{"email_type"},
		),
		EmailSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_skipped_total",
				Help:      "Emails not attempted, e.g. provider not configured",
			},
			[]string{"email_type"},
		),
	}
}

// Global instance for easy access from services and handlers. Nil until
// InitBusinessMetrics runs; every Record method is a no-op on nil.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance.
func InitBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, reg)
	return Business
}

func (m *BusinessMetrics) RecordOrderCreated(shippingOption string, totalCents int64, units int) {
	if m == nil {
		return
	}
	if shippingOption == "" {
		shippingOption = "unspecified"
	}
	m.OrdersCreated.WithLabelValues(shippingOption).Inc()
	m.OrderValue.Observe(float64(totalCents))
	m.OrderItemCount.Observe(float64(units))
}

func (m *BusinessMetrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(status).Inc()
}

func (m *BusinessMetrics) RecordCheckoutSession(result string, seconds float64) {
	if m == nil {
		return
	}
	m.CheckoutSessions.WithLabelValues(result).Inc()
	if seconds > 0 {
		m.StripeAPILatency.WithLabelValues("create_checkout_session").Observe(seconds)
	}
}

func (m *BusinessMetrics) RecordWebhookReceived(eventType string) {
	if m == nil {
		return
	}
	m.WebhookReceived.WithLabelValues(eventType).Inc()
}

func (m *BusinessMetrics) RecordWebhookDuplicate() {
	if m == nil {
		return
	}
	m.WebhookDuplicate.Inc()
}

func (m *BusinessMetrics) RecordWebhookFailed(reason string) {
	if m == nil {
		return
	}
	m.WebhookFailed.WithLabelValues(reason).Inc()
}

func (m *BusinessMetrics) RecordPaymentConfirmed(totalCents int64) {
	if m == nil {
		return
	}
	m.PaymentsConfirmed.Inc()
	m.RevenueCollected.Add(float64(totalCents))
}

func (m *BusinessMetrics) RecordStockDecrement(result string) {
	if m == nil {
		return
	}
	m.StockDecrements.WithLabelValues(result).Inc()
}

func (m *BusinessMetrics) RecordEventPublishFailed() {
	if m == nil {
		return
	}
	m.EventsPublishFailed.Inc()
}

// RecordEmail counts a send outcome: "sent", "failed" or "skipped".
func (m *BusinessMetrics) RecordEmail(emailType, status string) {
	if m == nil {
		return
	}
	switch status {
	case "sent":
		m.EmailSent.WithLabelValues(emailType).Inc()
	case "failed":
		m.EmailFailed.WithLabelValues(emailType).Inc()
	default:
		m.EmailSkipped.WithLabelValues(emailType).Inc()
	}
}
