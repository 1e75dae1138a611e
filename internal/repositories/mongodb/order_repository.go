package mongodb

import (
	"context"
	"fmt"
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/services"
	"swiftserve/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type orderRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewOrderRepository(db *mongo.Database, cache services.CacheService) interfaces.OrderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
		cache:      cache,
	}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.cacheOrder(ctx, order)
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	// Try cache first
	if cached := r.getOrderFromCache(ctx, id.Hex()); cached != nil {
		return cached, nil
	}

	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("order %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	r.cacheOrder(ctx, &order)
	return &order, nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"order_number": orderNumber}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("order %s: %w", orderNumber, services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by number: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateOrderCache(ctx, id.Hex())
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

func (r *orderRepository) MarkDelivered(ctx context.Context, id primitive.ObjectID, deliveredAt time.Time) error {
	return r.Update(ctx, id, map[string]interface{}{
		"status":       models.OrderStatusDelivered,
		"delivered_at": deliveredAt,
	})
}

func (r *orderRepository) GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	filter := bson.M{"customer_id": customerID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := params.GetSortOptions()
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*models.Order
	for cursor.Next(ctx) {
		var order models.Order
		if err := cursor.Decode(&order); err != nil {
			return nil, 0, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, &order)
	}

	return orders, total, nil
}

func (r *orderRepository) cacheOrder(ctx context.Context, order *models.Order) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("order:%s", order.ID.Hex())
		r.cache.Set(ctx, cacheKey, order, 15*time.Minute)
	}
}

func (r *orderRepository) getOrderFromCache(ctx context.Context, orderID string) *models.Order {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("order:%s", orderID)
	var order models.Order
	err := r.cache.Get(ctx, cacheKey, &order)
	if err != nil {
		return nil
	}

	return &order
}

func (r *orderRepository) invalidateOrderCache(ctx context.Context, orderID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("order:%s", orderID)
		r.cache.Delete(ctx, cacheKey)
	}
}
