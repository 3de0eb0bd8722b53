package storefront

import (
	"net/http"
	"strings"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/handler"
	"github.com/dukerupert/loomworks/internal/service"
)

// CheckoutHandler starts hosted payment for an order.
type CheckoutHandler struct {
	checkout service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// CreateSessionRequest is the body of POST /api/checkout-session.
type CreateSessionRequest struct {
	OrderID string `json:"orderId"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// CreateSession handles POST /api/checkout-session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "checkout.create_session"

	var req CreateSessionRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "orderId", "is required"))
		return
	}

	url, err := h.checkout.CreateCheckoutSession(r.Context(), req.OrderID, req.BaseURL)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
