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

type customerRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewCustomerRepository(db *mongo.Database, cache services.CacheService) interfaces.CustomerRepository {
	return &customerRepository{
		collection: db.Collection("customers"),
		cache:      cache,
	}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID.IsZero() {
		customer.ID = primitive.NewObjectID()
	}
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, customer)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	// Try cache first
	if cached := r.getCustomerFromCache(ctx, id.Hex()); cached != nil {
		return cached, nil
	}

	var customer models.Customer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("customer %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	r.cacheCustomer(ctx, &customer)
	return &customer, nil
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.collection.FindOne(ctx, bson.M{"phone": phone}).Decode(&customer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("customer with phone %s: %w", utils.MaskPhone(phone), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer by phone: %w", err)
	}

	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("customer %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateCustomerCache(ctx, id.Hex())
	return nil
}

func (r *customerRepository) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"device_tokens": token},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add device token: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("customer %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateCustomerCache(ctx, id.Hex())
	return nil
}

func (r *customerRepository) RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"device_tokens": token},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("customer %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateCustomerCache(ctx, id.Hex())
	return nil
}

func (r *customerRepository) cacheCustomer(ctx context.Context, customer *models.Customer) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("customer:%s", customer.ID.Hex())
		r.cache.Set(ctx, cacheKey, customer, 15*time.Minute)
	}
}

func (r *customerRepository) getCustomerFromCache(ctx context.Context, customerID string) *models.Customer {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("customer:%s", customerID)
	var customer models.Customer
	err := r.cache.Get(ctx, cacheKey, &customer)
	if err != nil {
		return nil
	}

	return &customer
}

func (r *customerRepository) invalidateCustomerCache(ctx context.Context, customerID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("customer:%s", customerID)
		r.cache.Delete(ctx, cacheKey)
	}
}
