package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/pricing"
	"github.com/dukerupert/loomworks/internal/telemetry"
)

// OrderService provides business logic for order operations
type OrderService interface {
	// CreateOrder validates checkout input, recomputes the total and stores
	// a pending order. userID may be empty for guest checkout.
	CreateOrder(ctx context.Context, input domain.CreateOrderInput, userID string) (*domain.Order, error)

	// GetOrderByID returns nil, nil when the order does not exist.
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)

	// ListOrders returns orders newest first, optionally filtered by status.
	ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)

	// ListOrdersForUser returns only orders attributed to userID.
	ListOrdersForUser(ctx context.Context, userID string) ([]domain.Order, error)

	// UpdateOrderStatus sets the fulfillment status. A nil tracking leaves
	// the stored tracking number untouched; an empty one clears it.
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, tracking *string) (*domain.Order, error)

	// UpdateOrderPaymentStatus moves the payment state forward. Paid also
	// confirms a pending order.
	UpdateOrderPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, method string) (*domain.Order, error)
}

type orderService struct {
	orders domain.OrderStore
	policy *pricing.Policy
	now    func() time.Time
	logger *slog.Logger
}

// NewOrderService creates a new OrderService instance. When policy is set,
// the submitted shipping amount must match one of the offered options.
func NewOrderService(orders domain.OrderStore, policy *pricing.Policy, logger *slog.Logger) OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &orderService{
		orders: orders,
		policy: policy,
		now:    time.Now,
		logger: logger.With("service", "order"),
	}
}

func (s *orderService) CreateOrder(ctx context.Context, input domain.CreateOrderInput, userID string) (*domain.Order, error) {
	const op = "order.create"

	if len(input.Items) == 0 {
		return nil, domain.NewValidationError(op, "items", domain.ErrEmptyOrder.Message)
	}
	if err := validateStruct(op, input); err != nil {
		return nil, err
	}
	if err := s.checkTotals(op, input); err != nil {
		return nil, err
	}

	order := domain.NewPendingOrder(input, userID)
	if err := s.orders.InsertOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total", order.Total,
		"items", len(order.Items),
	)
	telemetry.Business.RecordOrderCreated(order.ShippingOptionName, order.Total, order.ItemCount())

	return order, nil
}

// checkTotals rejects submissions whose total differs from
// Σ price × quantity + shipping + tax.
func (s *orderService) checkTotals(op string, input domain.CreateOrderInput) error {
	subtotal := pricing.Subtotal(pricing.LinesFromItems(input.Items))

	if s.policy != nil && !s.shippingOffered(subtotal, input.Shipping) {
		return domain.NewValidationError(op, "shipping",
			fmt.Sprintf("shipping %d does not match any available option", input.Shipping))
	}

	want := subtotal + input.Shipping + input.Tax
	if input.Total != want {
		return domain.NewValidationError(op, "total",
			fmt.Sprintf("total %d does not match items, shipping and tax (%d)", input.Total, want))
	}
	return nil
}

func (s *orderService) shippingOffered(subtotal, shipping int64) bool {
	for _, opt := range pricing.ShippingOptions(subtotal, *s.policy) {
		if opt.Cost == shipping {
			return true
		}
	}
	return false
}

func (s *orderService) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, nil
	}
	return s.orders.FindOrder(ctx, id)
}

func (s *orderService) ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, domain.Errorf(domain.EINVALID, "order.list", "unknown order status: %s", status)
	}
	return s.orders.ListOrders(ctx, domain.OrderFilter{Status: status})
}

func (s *orderService) ListOrdersForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" || userID == domain.GuestUserID {
		return nil, ErrNotAuthenticated
	}
	return s.orders.ListOrders(ctx, domain.OrderFilter{UserID: userID})
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, tracking *string) (*domain.Order, error) {
	order, err := s.orders.UpdateOrder(ctx, id, func(o *domain.Order) error {
		return domain.ApplyStatusUpdate(o, status, tracking, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		"order_id", id,
		"status", order.Status,
		"tracking_number", order.TrackingNumber,
	)
	telemetry.Business.RecordStatusChange(string(order.Status))
	return order, nil
}

func (s *orderService) UpdateOrderPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, method string) (*domain.Order, error) {
	order, err := s.orders.UpdateOrder(ctx, id, func(o *domain.Order) error {
		return domain.ApplyPaymentStatus(o, status, method, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order payment status updated",
		"order_id", id,
		"payment_status", order.PaymentStatus,
		"status", order.Status,
	)
	return order, nil
}
