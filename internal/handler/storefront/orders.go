package storefront

import (
	"net/http"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/handler"
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/service"
)

// OrderHandler handles order placement and lookup.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrderResponse is returned by Create.
type CreateOrderResponse struct {
	OrderID string `json:"orderId"`
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateOrderInput
	if err := handler.DecodeJSON(r, "order.create", &input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), input, middleware.GetUserID(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, CreateOrderResponse{OrderID: order.ID})
}

// Get handles GET /api/orders/{id}
//
// The confirmation page polls this after the payment redirect. An unknown
// id is a 404, kept distinct from store failures. Account orders are only
// shown to their owner; anyone else gets the same 404.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	order, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if order == nil || !visibleTo(order, middleware.GetUserID(r.Context())) {
		handler.ErrorResponse(w, r, domain.NotFound("order.get", "order", id))
		return
	}
	handler.WriteJSON(w, http.StatusOK, order)
}

// visibleTo reports whether userID may read order. Guest orders are
// reachable by id alone.
func visibleTo(order *domain.Order, userID string) bool {
	return order.UserID == "" || order.UserID == domain.GuestUserID || order.UserID == userID
}

// ListMine handles GET /api/account/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrdersForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}
