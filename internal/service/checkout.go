package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/loomworks/internal/billing"
	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/telemetry"
)

// CheckoutService hands pending orders off to the hosted payment page.
type CheckoutService interface {
	// CreateCheckoutSession returns the URL to redirect the customer to.
	// baseURL overrides the configured storefront URL for the redirects.
	CreateCheckoutSession(ctx context.Context, orderID, baseURL string) (string, error)
}

// CheckoutConfig configures redirect targets.
type CheckoutConfig struct {
	// BaseURL is the storefront origin used when the caller supplies none.
	BaseURL string

	// AllowedOrigins restricts caller-supplied base URLs. Empty allows only
	// BaseURL's origin.
	AllowedOrigins []string

	Currency string
}

type checkoutService struct {
	orders   domain.OrderStore
	provider billing.Provider
	config   CheckoutConfig
	logger   *slog.Logger
}

// NewCheckoutService creates a CheckoutService. A nil provider makes every
// call fail with ErrPaymentsNotConfigured.
func NewCheckoutService(orders domain.OrderStore, provider billing.Provider, config CheckoutConfig, logger *slog.Logger) CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &checkoutService{
		orders:   orders,
		provider: provider,
		config:   config,
		logger:   logger.With("service", "checkout"),
	}
}

func (s *checkoutService) CreateCheckoutSession(ctx context.Context, orderID, baseURL string) (string, error) {
	const op = "checkout.create_session"

	if s.provider == nil {
		telemetry.Business.RecordCheckoutSession("unavailable", 0)
		return "", &domain.Error{Code: domain.EUNAVAILABLE, Op: op, Message: ErrPaymentsNotConfigured.Message}
	}

	base, err := s.redirectBase(baseURL)
	if err != nil {
		return "", domain.NewValidationError(op, "baseUrl", err.Error())
	}

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", domain.ErrOrderNotFound
	}
	if order.Total <= 0 {
		return "", domain.ErrZeroTotal
	}
	if order.PaymentStatus != domain.PaymentStatusPending || order.Status == domain.OrderStatusCancelled {
		return "", domain.Conflict(op, "Order is not awaiting payment")
	}

	start := time.Now()
	session, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutSessionParams{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		Currency:      s.config.Currency,
		LineItems:     lineItems(order),
		SuccessURL:    base + "/order-confirmation?orderId=" + url.QueryEscape(order.ID),
		CancelURL:     base + "/checkout?orderId=" + url.QueryEscape(order.ID),
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		telemetry.Business.RecordCheckoutSession("gateway_error", elapsed)

		attrs := []any{"order_id", order.ID, "error", err}
		var gerr *billing.GatewayError
		if errors.As(err, &gerr) {
			attrs = append(attrs, "stripe_code", gerr.Code, "stripe_request_id", gerr.RequestID)
		}
		s.logger.Error("failed to create checkout session", attrs...)
		return "", &domain.Error{Code: domain.EPAYMENT, Op: op, Message: ErrPaymentGateway.Message, Err: err}
	}

	telemetry.Business.RecordCheckoutSession("created", elapsed)
	s.logger.Info("checkout session created",
		"order_id", order.ID,
		"session_id", session.ID,
	)
	return session.URL, nil
}

// redirectBase picks the storefront origin for redirects. Caller-supplied
// values must be absolute http(s) URLs on an allowed origin.
func (s *checkoutService) redirectBase(requested string) (string, error) {
	requested = strings.TrimRight(strings.TrimSpace(requested), "/")
	if requested == "" {
		if s.config.BaseURL == "" {
			return "", fmt.Errorf("is required when no default is configured")
		}
		return s.config.BaseURL, nil
	}

	u, err := url.Parse(requested)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("must be an absolute http(s) URL")
	}

	origin := u.Scheme + "://" + u.Host
	allowed := s.config.AllowedOrigins
	if len(allowed) == 0 && s.config.BaseURL != "" {
		allowed = []string{s.config.BaseURL}
	}
	for _, a := range allowed {
		if au, err := url.Parse(a); err == nil && au.Scheme+"://"+au.Host == origin {
			return requested, nil
		}
	}
	return "", fmt.Errorf("origin %s is not allowed", origin)
}

// lineItems mirrors the order on the payment page: one row per item plus
// shipping and tax rows, so the page total equals order.Total.
func lineItems(o *domain.Order) []billing.LineItem {
	items := make([]billing.LineItem, 0, len(o.Items)+2)
	for _, it := range o.Items {
		name := it.Product.Name
		if name == "" {
			name = it.ProductID
		}
		items = append(items, billing.LineItem{
			Name:       name,
			ImageURL:   it.Product.ImageURL,
			UnitAmount: it.Price,
			Quantity:   int64(it.Quantity),
		})
	}
	if o.Shipping > 0 {
		name := "Shipping"
		if o.ShippingOptionName != "" {
			name = o.ShippingOptionName
		}
		items = append(items, billing.LineItem{Name: name, UnitAmount: o.Shipping, Quantity: 1})
	}
	if o.Tax > 0 {
		items = append(items, billing.LineItem{Name: "Tax", UnitAmount: o.Tax, Quantity: 1})
	}
	return items
}
