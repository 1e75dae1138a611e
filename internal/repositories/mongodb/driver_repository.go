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

type driverRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewDriverRepository(db *mongo.Database, cache services.CacheService) interfaces.DriverRepository {
	return &driverRepository{
		collection: db.Collection("drivers"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *driverRepository) Create(ctx context.Context, driver *models.Driver) error {
	if driver.ID.IsZero() {
		driver.ID = primitive.NewObjectID()
	}
	now := time.Now()
	driver.CreatedAt = now
	driver.UpdatedAt = now
	if driver.Balance.Currency == "" {
		driver.Balance.Currency = utils.DefaultCurrency
	}
	driver.Balance.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, driver)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	r.cacheDriver(ctx, driver)
	return nil
}

func (r *driverRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	// Try cache first
	if driver := r.getDriverFromCache(ctx, id.Hex()); driver != nil {
		return driver, nil
	}

	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	r.cacheDriver(ctx, &driver)
	return &driver, nil
}

func (r *driverRepository) GetByPhone(ctx context.Context, phone string) (*models.Driver, error) {
	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"phone": phone}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver with phone %s: %w", utils.MaskPhone(phone), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver by phone: %w", err)
	}

	return &driver, nil
}

func (r *driverRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

// Status and assignment
func (r *driverRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus) error {
	updates := map[string]interface{}{
		"status": status,
	}

	// Anything other than online means no new assignments
	if status != models.DriverStatusOnline {
		updates["is_available"] = false
	}

	return r.Update(ctx, id, updates)
}

func (r *driverRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	updates := map[string]interface{}{
		"is_available": available,
	}

	// Coming back available implies the driver is online again
	if available {
		driver, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if driver.Status == models.DriverStatusOffline || driver.Status == models.DriverStatusOnDelivery {
			updates["status"] = models.DriverStatusOnline
		}
	}

	return r.Update(ctx, id, updates)
}

func (r *driverRepository) SetCurrentDelivery(ctx context.Context, id primitive.ObjectID, deliveryID *primitive.ObjectID) error {
	updates := map[string]interface{}{
		"current_delivery_id": deliveryID,
	}
	if deliveryID != nil {
		updates["status"] = models.DriverStatusOnDelivery
		updates["is_available"] = false
	}

	return r.Update(ctx, id, updates)
}

func (r *driverRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error {
	updates := map[string]interface{}{
		"current_location":     location,
		"last_location_update": time.Now(),
	}

	return r.Update(ctx, id, updates)
}

// Balance mutations. Every write below is one Mongo update; concurrent
// credits and debits interleave safely without a read-modify-write race.
func (r *driverRepository) CreditEarnings(ctx context.Context, id primitive.ObjectID, amount float64) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{
				"balance.current_balance":   amount,
				"balance.lifetime_earnings": amount,
			},
			"$set": bson.M{
				"balance.updated_at": now,
				"updated_at":         now,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to credit driver earnings: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

func (r *driverRepository) CreditBalance(ctx context.Context, id primitive.ObjectID, amount float64) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"balance.current_balance": amount},
			"$set": bson.M{
				"balance.updated_at": now,
				"updated_at":         now,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to credit driver balance: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

// DebitBalanceIfAvailable subtracts amount only while the balance covers it.
// The balance condition sits in the filter, so the check and the debit are a
// single atomic operation. Returns false when the balance was insufficient
// or the driver does not exist.
func (r *driverRepository) DebitBalanceIfAvailable(ctx context.Context, id primitive.ObjectID, amount float64) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id":                     id,
		"balance.current_balance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"balance.current_balance": -amount},
		"$set": bson.M{
			"balance.updated_at": now,
			"updated_at":         now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to debit driver balance: %w", err)
	}
	if result.MatchedCount == 0 {
		return false, nil
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return true, nil
}

// DecrementBalanceClamped subtracts amount but never past zero. Used when the
// earned gross has already partially left the balance through instant payouts.
func (r *driverRepository) DecrementBalanceClamped(ctx context.Context, id primitive.ObjectID, amount float64) error {
	now := time.Now()
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"balance.current_balance": bson.M{"$max": bson.A{
				0,
				bson.M{"$subtract": bson.A{"$balance.current_balance", amount}},
			}},
			"balance.updated_at": now,
			"updated_at":         now,
		}},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to decrement driver balance: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

// Delivery counters
func (r *driverRepository) IncrementDeliveryCounters(ctx context.Context, id primitive.ObjectID, completed bool) error {
	inc := bson.M{"total_deliveries": 1}
	if completed {
		inc["completed_deliveries"] = 1
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": inc,
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment delivery counters: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

// Payout destination
func (r *driverRepository) UpdateBankAccount(ctx context.Context, id primitive.ObjectID, account *models.BankAccount) error {
	account.UpdatedAt = time.Now()
	return r.Update(ctx, id, map[string]interface{}{"bank_account": account})
}

// Push targets
func (r *driverRepository) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
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
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

func (r *driverRepository) RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
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
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

// Listing
func (r *driverRepository) GetByStatus(ctx context.Context, status models.DriverStatus, params *utils.PaginationParams) ([]*models.Driver, int64, error) {
	filter := bson.M{"status": status}
	return r.findDriversWithFilter(ctx, filter, params)
}

// Helper methods
func (r *driverRepository) findDriversWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Driver, int64, error) {
	// Add search filter if provided
	if params.Search != "" {
		searchFields := []string{"first_name", "last_name", "phone", "email"}
		searchFilter := params.GetSearchFilter(searchFields)
		if len(searchFilter) > 0 {
			filter = bson.M{
				"$and": []bson.M{filter, searchFilter},
			}
		}
	}

	// Get total count
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count drivers: %w", err)
	}

	// Get paginated results
	opts := params.GetSortOptions()
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find drivers: %w", err)
	}
	defer cursor.Close(ctx)

	var drivers []*models.Driver
	for cursor.Next(ctx) {
		var driver models.Driver
		if err := cursor.Decode(&driver); err != nil {
			return nil, 0, fmt.Errorf("failed to decode driver: %w", err)
		}
		drivers = append(drivers, &driver)
	}

	return drivers, total, nil
}

// Cache operations
func (r *driverRepository) cacheDriver(ctx context.Context, driver *models.Driver) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("driver:%s", driver.ID.Hex())
		r.cache.Set(ctx, cacheKey, driver, 15*time.Minute)
	}
}

func (r *driverRepository) getDriverFromCache(ctx context.Context, driverID string) *models.Driver {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("driver:%s", driverID)
	var driver models.Driver
	err := r.cache.Get(ctx, cacheKey, &driver)
	if err != nil {
		return nil
	}

	return &driver
}

func (r *driverRepository) invalidateDriverCache(ctx context.Context, driverID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("driver:%s", driverID)
		r.cache.Delete(ctx, cacheKey)
	}
}
