package mongodb

import (
	"context"
	"time"

	"github.com/dukerupert/loomworks/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type stockDocument struct {
	ProductID string    `bson:"_id"`
	Stock     int       `bson:"stock"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// StockStore implements domain.StockStore on MongoDB.
type StockStore struct {
	stock       *mongo.Collection
	adjustments *mongo.Collection
}

// Compile-time check that StockStore implements domain.StockStore.
var _ domain.StockStore = (*StockStore)(nil)

// NewStockStore creates a MongoDB-backed stock store.
func NewStockStore(db *mongo.Database) *StockStore {
	return &StockStore{
		stock:       db.Collection(StockCollection),
		adjustments: db.Collection(StockAdjustmentsCollection),
	}
}

func (s *StockStore) GetStock(ctx context.Context, productID string) (int, error) {
	var doc stockDocument
	err := s.stock.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, domain.Persistence(err, "stock.get")
	}
	return doc.Stock, nil
}

func (s *StockStore) SetStock(ctx context.Context, productID string, stock int) error {
	_, err := s.stock.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{"stock": stock, "updatedAt": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return domain.Persistence(err, "stock.set")
	}
	return nil
}

// DecrementStock lowers the counter with a single pipeline update so the
// floor at zero is applied server-side.
func (s *StockStore) DecrementStock(ctx context.Context, productID string, quantity int) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$stock", quantity}}},
			}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}

	res, err := s.stock.UpdateOne(ctx, bson.M{"_id": productID}, update)
	if err != nil {
		return domain.Persistence(err, "stock.decrement")
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// DecrementStockOnce claims the (order, product) pair with a unique _id
// before decrementing. If the decrement fails the claim is released so a
// later attempt can apply it.
func (s *StockStore) DecrementStockOnce(ctx context.Context, orderID, productID string, quantity int) (bool, error) {
	claimID := orderID + ":" + productID
	_, err := s.adjustments.InsertOne(ctx, bson.M{
		"_id":       claimID,
		"orderId":   orderID,
		"productId": productID,
		"quantity":  quantity,
		"appliedAt": time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, domain.Persistence(err, "stock.decrement")
	}

	if err := s.DecrementStock(ctx, productID, quantity); err != nil {
		_, _ = s.adjustments.DeleteOne(ctx, bson.M{"_id": claimID})
		return false, err
	}
	return true, nil
}
