package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/loomworks/internal/cart"
	"github.com/dukerupert/loomworks/internal/cookie"
	"github.com/dukerupert/loomworks/internal/handler/admin"
	"github.com/dukerupert/loomworks/internal/handler/storefront"
	"github.com/dukerupert/loomworks/internal/handler/webhook"
	"github.com/dukerupert/loomworks/internal/memory"
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/pricing"
	"github.com/dukerupert/loomworks/internal/router"
	"github.com/dukerupert/loomworks/internal/service"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(t *testing.T) *router.Router {
	t.Helper()

	orders := memory.NewOrderStore()
	inventory := service.NewInventoryService(memory.NewStockStore(nil), nil)
	policy := pricing.Policy{FreeShippingThreshold: 10000, StandardShippingCost: 500}
	orderService := service.NewOrderService(orders, &policy, nil)
	checkout := service.NewCheckoutService(orders, nil, service.CheckoutConfig{BaseURL: "http://localhost:3000"}, nil)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	t.Cleanup(limiter.Stop)

	r := router.New(middleware.RequestID, middleware.WithUser)
	RegisterStorefrontRoutes(r, StorefrontDeps{
		CartHandler:     storefront.NewCartHandler(cart.NewCookieStore(cookie.NewConfig("", false)), inventory, policy),
		OrderHandler:    storefront.NewOrderHandler(orderService),
		CheckoutHandler: storefront.NewCheckoutHandler(checkout),
		CheckoutLimiter: limiter,
	})
	RegisterAdminRoutes(r, AdminDeps{
		OrderHandler: admin.NewOrderHandler(orderService),
		StockHandler: admin.NewStockHandler(inventory),
		AdminEmails:  []string{"ops@loomworks.test"},
	})
	RegisterWebhookRoutes(r, WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(nil, nil, nil),
	})
	return r
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		headers    map[string]string
		wantStatus int
	}{
		{"cart view", http.MethodGet, "/api/cart", "", nil, http.StatusOK},
		{"unknown order", http.MethodGet, "/api/orders/nope", "", nil, http.StatusNotFound},
		{"account needs user", http.MethodGet, "/api/account/orders", "", nil, http.StatusUnauthorized},
		{"account with user", http.MethodGet, "/api/account/orders", "", map[string]string{middleware.UserIDHeader: "u1"}, http.StatusOK},
		{"checkout without payments", http.MethodPost, "/api/checkout-session", `{"orderId":"o1"}`, nil, http.StatusServiceUnavailable},
		{"admin without identity", http.MethodGet, "/admin/api/orders", "", nil, http.StatusUnauthorized},
		{"admin not allowed", http.MethodGet, "/admin/api/orders", "", map[string]string{middleware.AdminEmailHeader: "eve@example.com"}, http.StatusForbidden},
		{"admin allowed", http.MethodGet, "/admin/api/orders", "", map[string]string{middleware.AdminEmailHeader: "OPS@loomworks.test"}, http.StatusOK},
		{"webhook without payments", http.MethodPost, "/webhooks/stripe", `{}`, nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			req.RemoteAddr = "198.51.100.1:1234"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRoutes_CheckoutRateLimited(t *testing.T) {
	r := newTestRouter(t)

	var last int
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout-session", strings.NewReader(`{"orderId":"o1"}`))
		req.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		last = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}
