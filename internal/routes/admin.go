package routes

import (
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/router"
)

// RegisterAdminRoutes registers the back-office JSON API.
// All routes are protected by the admin allow-list.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	admin := r.Group(
		middleware.RequireAdmin(deps.AdminEmails),
		middleware.MaxBodySize(middleware.SmallMaxBodySize),
	)

	// Order management
	admin.Get("/admin/api/orders", deps.OrderHandler.List)
	admin.Get("/admin/api/orders/{id}", deps.OrderHandler.Get)
	admin.Post("/admin/api/orders/{id}/status", deps.OrderHandler.UpdateStatus)
	admin.Post("/admin/api/orders/{id}/payment", deps.OrderHandler.UpdatePayment)

	// Inventory
	admin.Get("/admin/api/stock/{productId}", deps.StockHandler.Get)
	admin.Put("/admin/api/stock/{productId}", deps.StockHandler.Set)
}
