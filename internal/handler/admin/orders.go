// Package admin serves the back-office JSON API. Every route is mounted
// behind middleware.RequireAdmin.
package admin

import (
	"net/http"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/handler"
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/service"
)

// OrderHandler lets operators list orders and move them through fulfillment.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new admin order handler
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List handles GET /admin/api/orders?status=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.orders.ListOrders(r.Context(), status)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Get handles GET /admin/api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrderByID(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if order == nil {
		handler.ErrorResponse(w, r, domain.ErrOrderNotFound)
		return
	}
	handler.WriteJSON(w, http.StatusOK, order)
}

// UpdateStatusRequest changes fulfillment status. A nil TrackingNumber leaves
// the stored value alone; an empty string clears it.
type UpdateStatusRequest struct {
	Status         domain.OrderStatus `json:"status"`
	TrackingNumber *string            `json:"trackingNumber,omitempty"`
}

// UpdateStatus handles POST /admin/api/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "admin.order.update_status"

	var req UpdateStatusRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.Status == "" {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "status", "is required"))
		return
	}

	id := r.PathValue("id")
	order, err := h.orders.UpdateOrderStatus(r.Context(), id, req.Status, req.TrackingNumber)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("order status updated by admin",
		"order_id", id,
		"status", order.Status,
		"admin", middleware.GetAdminEmail(r.Context()),
	)
	handler.WriteJSON(w, http.StatusOK, order)
}

// UpdatePaymentRequest changes payment status by hand, e.g. for a refund
// issued in the provider dashboard.
type UpdatePaymentRequest struct {
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	PaymentMethod string               `json:"paymentMethod,omitempty"`
}

// UpdatePayment handles POST /admin/api/orders/{id}/payment
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	const op = "admin.order.update_payment"

	var req UpdatePaymentRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.PaymentStatus == "" {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "paymentStatus", "is required"))
		return
	}

	id := r.PathValue("id")
	order, err := h.orders.UpdateOrderPaymentStatus(r.Context(), id, req.PaymentStatus, req.PaymentMethod)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("payment status updated by admin",
		"order_id", id,
		"payment_status", order.PaymentStatus,
		"admin", middleware.GetAdminEmail(r.Context()),
	)
	handler.WriteJSON(w, http.StatusOK, order)
}
