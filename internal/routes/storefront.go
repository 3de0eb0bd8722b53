package routes

import (
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/router"
)

// RegisterStorefrontRoutes registers the customer-facing JSON API.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	api := r.Group(middleware.MaxBodySize(middleware.SmallMaxBodySize))

	// Cart
	api.Get("/api/cart", deps.CartHandler.View)
	api.Post("/api/cart/items", deps.CartHandler.SetQuantity)
	api.Post("/api/cart/shipping", deps.CartHandler.SetShipping)
	api.Delete("/api/cart", deps.CartHandler.Clear)

	// Order placement and payment handoff are rate limited
	limited := api
	if deps.CheckoutLimiter != nil {
		limited = api.Group(deps.CheckoutLimiter.Middleware)
	}
	limited.Post("/api/orders", deps.OrderHandler.Create)
	limited.Post("/api/checkout-session", deps.CheckoutHandler.CreateSession)

	// Confirmation page lookup
	api.Get("/api/orders/{id}", deps.OrderHandler.Get)

	// Account routes (require user identity)
	account := api.Group(middleware.RequireUser)
	account.Get("/api/account/orders", deps.OrderHandler.ListMine)
}
