package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxUpdateRetries = 4

// orderDocument adds a revision counter used for optimistic updates.
type orderDocument struct {
	domain.Order `bson:",inline"`
	Revision     int64 `bson:"_rev"`
}

// OrderStore implements domain.OrderStore on a MongoDB collection.
type OrderStore struct {
	orders *mongo.Collection
	now    func() time.Time
}

// Compile-time check that OrderStore implements domain.OrderStore.
var _ domain.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a MongoDB-backed order store.
func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{orders: db.Collection(OrdersCollection), now: time.Now}
}

func (s *OrderStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := s.orders.InsertOne(ctx, orderDocument{Order: *order}); err != nil {
		return domain.Persistence(err, "order.create")
	}
	return nil
}

func (s *OrderStore) FindOrder(ctx context.Context, id string) (*domain.Order, error) {
	doc, err := s.find(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Persistence(err, "order.get")
	}
	return &doc.Order, nil
}

func (s *OrderStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}

	cursor, err := s.orders.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, domain.Persistence(err, "order.list")
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domain.Persistence(err, "order.list")
	}

	orders := make([]domain.Order, len(docs))
	for i, d := range docs {
		orders[i] = d.Order
	}
	return orders, nil
}

// errRevisionChanged marks a lost optimistic-update race.
var errRevisionChanged = errors.New("order revision changed")

// UpdateOrder replaces the document only if its revision is unchanged since
// it was read, retrying with backoff on contention.
func (s *OrderStore) UpdateOrder(ctx context.Context, id string, mutate func(*domain.Order) error) (*domain.Order, error) {
	backoff := retry.WithMaxRetries(maxUpdateRetries, retry.NewExponential(10*time.Millisecond))

	var updated *domain.Order
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		next, err := s.replaceIfUnchanged(ctx, id, mutate)
		if errors.Is(err, errRevisionChanged) {
			return retry.RetryableError(err)
		}
		updated = next
		return err
	})
	switch {
	case errors.Is(err, errRevisionChanged):
		return nil, domain.Conflict("order.update", "order was modified concurrently, please retry")
	case err != nil:
		return nil, err
	}
	return updated, nil
}

func (s *OrderStore) replaceIfUnchanged(ctx context.Context, id string, mutate func(*domain.Order) error) (*domain.Order, error) {
	current, err := s.find(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Persistence(err, "order.update")
	}

	next := current.Order.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = next.UpdatedAt.UTC().Truncate(time.Millisecond)

	res, err := s.orders.ReplaceOne(ctx,
		bson.M{"_id": id, "_rev": current.Revision},
		orderDocument{Order: *next, Revision: current.Revision + 1},
	)
	if err != nil {
		return nil, domain.Persistence(err, "order.update")
	}
	if res.MatchedCount == 0 {
		return nil, errRevisionChanged
	}
	return next, nil
}

func (s *OrderStore) find(ctx context.Context, id string) (*orderDocument, error) {
	var doc orderDocument
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
