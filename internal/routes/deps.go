package routes

import (
	"github.com/dukerupert/loomworks/internal/handler/admin"
	"github.com/dukerupert/loomworks/internal/handler/storefront"
	"github.com/dukerupert/loomworks/internal/handler/webhook"
	"github.com/dukerupert/loomworks/internal/middleware"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	CartHandler     *storefront.CartHandler
	OrderHandler    *storefront.OrderHandler
	CheckoutHandler *storefront.CheckoutHandler

	// CheckoutLimiter throttles order placement and payment session
	// creation per client IP. Nil disables throttling.
	CheckoutLimiter *middleware.RateLimiter
}

// AdminDeps contains dependencies for admin routes
type AdminDeps struct {
	OrderHandler *admin.OrderHandler
	StockHandler *admin.StockHandler

	// AdminEmails is the allow-list checked against X-Admin-Email.
	AdminEmails []string
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler *webhook.StripeHandler
}
