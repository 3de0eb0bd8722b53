package postgres

import (
	"context"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/jackc/pgx/v5"
)

// StockStore implements domain.StockStore on the product_stock table.
type StockStore struct {
	db TxBeginner
}

// Compile-time check that StockStore implements domain.StockStore.
var _ domain.StockStore = (*StockStore)(nil)

// NewStockStore creates a PostgreSQL-backed stock store.
func NewStockStore(db TxBeginner) *StockStore {
	return &StockStore{db: db}
}

const (
	selectStock = `SELECT stock FROM product_stock WHERE product_id = $1`
	upsertStock = `
INSERT INTO product_stock (product_id, stock, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (product_id) DO UPDATE SET stock = EXCLUDED.stock, updated_at = now()`
	decrementStock = `
UPDATE product_stock
SET stock = GREATEST(stock - $2, 0), updated_at = now()
WHERE product_id = $1`
	recordAdjustment = `
INSERT INTO stock_adjustments (order_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (order_id, product_id) DO NOTHING`
)

func (s *StockStore) GetStock(ctx context.Context, productID string) (int, error) {
	var stock int
	err := s.db.QueryRow(ctx, selectStock, productID).Scan(&stock)
	if isNoRows(err) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, domain.Persistence(err, "stock.get")
	}
	return stock, nil
}

func (s *StockStore) SetStock(ctx context.Context, productID string, stock int) error {
	if _, err := s.db.Exec(ctx, upsertStock, productID, stock); err != nil {
		return domain.Persistence(err, "stock.set")
	}
	return nil
}

func (s *StockStore) DecrementStock(ctx context.Context, productID string, quantity int) error {
	return decrement(ctx, s.db, productID, quantity)
}

// DecrementStockOnce records the (order, product) adjustment and applies the
// decrement in one transaction. A conflicting adjustment row means the line
// was already applied.
func (s *StockStore) DecrementStockOnce(ctx context.Context, orderID, productID string, quantity int) (bool, error) {
	applied := false
	err := withTx(ctx, s.db, "stock.decrement", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, recordAdjustment, orderID, productID, quantity)
		if err != nil {
			return domain.Persistence(err, "stock.decrement")
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if err := decrement(ctx, tx, productID, quantity); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func decrement(ctx context.Context, db DBTX, productID string, quantity int) error {
	tag, err := db.Exec(ctx, decrementStock, productID, quantity)
	if err != nil {
		return domain.Persistence(err, "stock.decrement")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
