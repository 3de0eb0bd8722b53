package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/telemetry"
)

// InventoryService manages per-product stock counters.
type InventoryService interface {
	GetStock(ctx context.Context, productID string) (int, error)
	SetStock(ctx context.Context, productID string, stock int) error

	// DecrementStock lowers stock by quantity, clamping at zero.
	DecrementStock(ctx context.Context, productID string, quantity int) error

	// DecrementForOrderLine applies one order line's decrement at most once.
	// applied is false when the line was already counted.
	DecrementForOrderLine(ctx context.Context, orderID string, item domain.OrderItem) (applied bool, err error)
}

type inventoryService struct {
	stock  domain.StockStore
	logger *slog.Logger
}

// NewInventoryService creates an InventoryService backed by stock.
func NewInventoryService(stock domain.StockStore, logger *slog.Logger) InventoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &inventoryService{stock: stock, logger: logger.With("service", "inventory")}
}

func (s *inventoryService) GetStock(ctx context.Context, productID string) (int, error) {
	return s.stock.GetStock(ctx, productID)
}

func (s *inventoryService) SetStock(ctx context.Context, productID string, stock int) error {
	const op = "inventory.set"
	if productID == "" {
		return domain.NewValidationError(op, "productId", "is required")
	}
	if stock < 0 {
		return domain.NewValidationError(op, "stock", "must be zero or greater")
	}
	if err := s.stock.SetStock(ctx, productID, stock); err != nil {
		return err
	}
	s.logger.Info("stock set", "product_id", productID, "stock", stock)
	return nil
}

func (s *inventoryService) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.NewValidationError("inventory.decrement", "quantity", "must be at least 1")
	}
	return s.stock.DecrementStock(ctx, productID, quantity)
}

func (s *inventoryService) DecrementForOrderLine(ctx context.Context, orderID string, item domain.OrderItem) (bool, error) {
	if item.Quantity <= 0 {
		return false, domain.NewValidationError("inventory.decrement", "quantity", "must be at least 1")
	}

	applied, err := s.stock.DecrementStockOnce(ctx, orderID, item.ProductID, item.Quantity)
	switch {
	case err != nil:
		telemetry.Business.RecordStockDecrement("failed")
		return false, err
	case !applied:
		telemetry.Business.RecordStockDecrement("already_applied")
		s.logger.Debug("stock decrement already applied",
			"order_id", orderID,
			"product_id", item.ProductID,
		)
	default:
		telemetry.Business.RecordStockDecrement("applied")
	}
	return applied, nil
}
