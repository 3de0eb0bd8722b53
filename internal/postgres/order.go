package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderStore implements domain.OrderStore on PostgreSQL. Each order is one
// row holding the full document as JSONB; status, user and timestamps are
// mirrored into columns for filtering and ordering.
type OrderStore struct {
	db  TxBeginner
	now func() time.Time
}

// Compile-time check that OrderStore implements domain.OrderStore.
var _ domain.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a PostgreSQL-backed order store.
func NewOrderStore(db TxBeginner) *OrderStore {
	return &OrderStore{db: db, now: time.Now}
}

const insertOrder = `
INSERT INTO orders (id, user_id, status, payment_status, document, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)`

func (s *OrderStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := s.now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	doc, err := json.Marshal(order)
	if err != nil {
		return domain.Internal(err, "order.create", "failed to encode order")
	}

	_, err = s.db.Exec(ctx, insertOrder, order.ID, order.UserID, order.Status, order.PaymentStatus, doc, now)
	if err != nil {
		return domain.Persistence(err, "order.create")
	}
	return nil
}

const selectOrder = `SELECT document FROM orders WHERE id = $1`

func (s *OrderStore) FindOrder(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var doc []byte
	err := s.db.QueryRow(ctx, selectOrder, id).Scan(&doc)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Persistence(err, "order.get")
	}
	return decodeOrder(doc)
}

const listOrders = `
SELECT document FROM orders
WHERE ($1 = '' OR status = $1)
  AND ($2 = '' OR user_id = $2)
ORDER BY created_at DESC`

func (s *OrderStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	rows, err := s.db.Query(ctx, listOrders, string(filter.Status), filter.UserID)
	if err != nil {
		return nil, domain.Persistence(err, "order.list")
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, domain.Persistence(err, "order.list")
		}
		o, err := decodeOrder(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence(err, "order.list")
	}
	return orders, nil
}

const (
	selectOrderForUpdate = `SELECT document FROM orders WHERE id = $1 FOR UPDATE`
	updateOrder          = `
UPDATE orders
SET status = $2, payment_status = $3, document = $4, updated_at = $5
WHERE id = $1`
)

func (s *OrderStore) UpdateOrder(ctx context.Context, id string, mutate func(*domain.Order) error) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrOrderNotFound
	}

	var updated *domain.Order
	err := withTx(ctx, s.db, "order.update", func(tx pgx.Tx) error {
		var doc []byte
		err := tx.QueryRow(ctx, selectOrderForUpdate, id).Scan(&doc)
		if isNoRows(err) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return domain.Persistence(err, "order.update")
		}

		current, err := decodeOrder(doc)
		if err != nil {
			return err
		}
		next := current.Clone()
		if err := mutate(next); err != nil {
			return err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt

		newDoc, err := json.Marshal(next)
		if err != nil {
			return domain.Internal(err, "order.update", "failed to encode order")
		}
		if _, err := tx.Exec(ctx, updateOrder, id, next.Status, next.PaymentStatus, newDoc, next.UpdatedAt); err != nil {
			return domain.Persistence(err, "order.update")
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func decodeOrder(doc []byte) (*domain.Order, error) {
	var o domain.Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, domain.Internal(fmt.Errorf("decode order document: %w", err), "order.decode", "failed to read order")
	}
	return &o, nil
}
