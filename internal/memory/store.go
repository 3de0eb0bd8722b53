// Package memory provides in-process order and stock stores for development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/google/uuid"
)

// OrderStore keeps orders in a map guarded by a mutex.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	now    func() time.Time
}

// NewOrderStore creates an empty order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*domain.Order),
		now:    time.Now,
	}
}

func (s *OrderStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := s.now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *OrderStore) FindOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (s *OrderStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.Matches(o) {
			out = append(out, *o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *OrderStore) UpdateOrder(ctx context.Context, id string, mutate func(*domain.Order) error) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt

	s.orders[id] = next
	return next.Clone(), nil
}

// StockStore keeps per-product counters and the set of applied
// (order, product) decrements.
type StockStore struct {
	mu      sync.Mutex
	stock   map[string]int
	applied map[string]struct{}
}

// NewStockStore creates a stock store seeded with initial counters.
func NewStockStore(initial map[string]int) *StockStore {
	stock := make(map[string]int, len(initial))
	for id, n := range initial {
		stock[id] = n
	}
	return &StockStore{
		stock:   stock,
		applied: make(map[string]struct{}),
	}
}

func (s *StockStore) GetStock(ctx context.Context, productID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.stock[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return n, nil
}

func (s *StockStore) SetStock(ctx context.Context, productID string, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stock[productID] = stock
	return nil
}

func (s *StockStore) DecrementStock(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.decrementLocked(productID, quantity)
}

func (s *StockStore) DecrementStockOnce(ctx context.Context, orderID, productID string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := orderID + "/" + productID
	if _, done := s.applied[key]; done {
		return false, nil
	}
	if err := s.decrementLocked(productID, quantity); err != nil {
		return false, err
	}
	s.applied[key] = struct{}{}
	return true, nil
}

func (s *StockStore) decrementLocked(productID string, quantity int) error {
	n, ok := s.stock[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	s.stock[productID] = max(n-quantity, 0)
	return nil
}
