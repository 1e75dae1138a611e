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

type deliveryRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewDeliveryRepository(db *mongo.Database, cache services.CacheService) interfaces.DeliveryRepository {
	return &deliveryRepository{
		collection: db.Collection("deliveries"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *deliveryRepository) Create(ctx context.Context, delivery *models.Delivery) error {
	if delivery.ID.IsZero() {
		delivery.ID = primitive.NewObjectID()
	}
	now := time.Now()
	delivery.CreatedAt = now
	delivery.UpdatedAt = now
	if delivery.AssignedAt.IsZero() {
		delivery.AssignedAt = now
	}
	if delivery.Status == "" {
		delivery.Status = models.DeliveryStatusAssigned
	}

	_, err := r.collection.InsertOne(ctx, delivery)
	if err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}

	r.cacheDelivery(ctx, delivery)
	return nil
}

func (r *deliveryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	// Try cache first
	if cached := r.getDeliveryFromCache(ctx, id.Hex()); cached != nil {
		return cached, nil
	}

	var delivery models.Delivery
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&delivery)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("delivery %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	r.cacheDelivery(ctx, &delivery)
	return &delivery, nil
}

func (r *deliveryRepository) GetByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.collection.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&delivery)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("delivery for order %s: %w", orderID.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get delivery by order: %w", err)
	}

	return &delivery, nil
}

func (r *deliveryRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("delivery %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDeliveryCache(ctx, id.Hex())
	return nil
}

// Status operations
func (r *deliveryRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DeliveryStatus) error {
	now := time.Now()
	updates := bson.M{
		"status":     status,
		"updated_at": now,
	}

	// Stamp the milestone that corresponds to the new status
	switch status {
	case models.DeliveryStatusPickedUp:
		updates["actual_pickup_time"] = now
	case models.DeliveryStatusArrived:
		updates["arrived_at"] = now
	case models.DeliveryStatusDelivered:
		updates["actual_delivery_time"] = now
	case models.DeliveryStatusCancelled:
		updates["cancelled_at"] = now
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update delivery status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("delivery %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDeliveryCache(ctx, id.Hex())
	return nil
}

// CompleteWithProof finishes a delivery in one conditional update so two
// concurrent completion calls cannot both succeed. The filter only matches
// while the delivery sits in one of allowedFrom.
func (r *deliveryRepository) CompleteWithProof(ctx context.Context, id primitive.ObjectID, proof *models.ProofOfDelivery, earnings *models.DeliveryEarnings, allowedFrom []models.DeliveryStatus) error {
	now := time.Now()
	if proof.CompletedAt.IsZero() {
		proof.CompletedAt = now
	}

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": allowedFrom},
	}
	update := bson.M{"$set": bson.M{
		"status":               models.DeliveryStatusDelivered,
		"proof":                proof,
		"earnings":             earnings,
		"actual_delivery_time": now,
		"updated_at":           now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to complete delivery: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing delivery from one in the wrong state
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to check delivery: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("delivery %s: %w", id.Hex(), services.ErrNotFound)
		}
		return fmt.Errorf("delivery is not in a completable status: %w", services.ErrPrecondition)
	}

	r.invalidateDeliveryCache(ctx, id.Hex())
	return nil
}

func (r *deliveryRepository) Cancel(ctx context.Context, id primitive.ObjectID, reason, cancelledBy string) error {
	now := time.Now()
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": models.ActiveDeliveryStatuses()},
	}
	update := bson.M{"$set": bson.M{
		"status":              models.DeliveryStatusCancelled,
		"cancellation_reason": reason,
		"cancelled_by":        cancelledBy,
		"cancelled_at":        now,
		"updated_at":          now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to cancel delivery: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to check delivery: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("delivery %s: %w", id.Hex(), services.ErrNotFound)
		}
		return fmt.Errorf("delivery is already terminal: %w", services.ErrPrecondition)
	}

	r.invalidateDeliveryCache(ctx, id.Hex())
	return nil
}

// Proof staging before completion

// SetProofFields writes individual proof subdocument fields. Keys are field
// names inside the proof document, without the "proof." prefix.
func (r *deliveryRepository) SetProofFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	updates := bson.M{"updated_at": time.Now()}
	for key, value := range fields {
		updates["proof."+key] = value
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to set proof fields: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("delivery %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDeliveryCache(ctx, id.Hex())
	return nil
}

func (r *deliveryRepository) MarkOTPVerified(ctx context.Context, id primitive.ObjectID) error {
	return r.SetProofFields(ctx, id, map[string]interface{}{"otp_verified": true})
}

// Issues
func (r *deliveryRepository) AddIssue(ctx context.Context, id primitive.ObjectID, issue *models.DeliveryIssue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.ReportedAt.IsZero() {
		issue.ReportedAt = time.Now()
	}

	update := bson.M{
		"$push": bson.M{"issues": issue},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add delivery issue: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("delivery %s: %w", id.Hex(), services.ErrNotFound)
	}

	r.invalidateDeliveryCache(ctx, id.Hex())
	return nil
}

// Search and filtering
func (r *deliveryRepository) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Delivery, int64, error) {
	filter := bson.M{"driver_id": driverID}
	return r.findDeliveriesWithFilter(ctx, filter, params)
}

func (r *deliveryRepository) GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Delivery, int64, error) {
	filter := bson.M{"customer_id": customerID}
	return r.findDeliveriesWithFilter(ctx, filter, params)
}

func (r *deliveryRepository) GetActiveByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.Delivery, error) {
	filter := bson.M{
		"driver_id": driverID,
		"status":    bson.M{"$in": models.ActiveDeliveryStatuses()},
	}

	var delivery models.Delivery
	err := r.collection.FindOne(ctx, filter).Decode(&delivery)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("no active delivery for driver %s: %w", driverID.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active delivery: %w", err)
	}

	return &delivery, nil
}

func (r *deliveryRepository) GetWithOpenIssues(ctx context.Context, urgentOnly bool, params *utils.PaginationParams) ([]*models.Delivery, int64, error) {
	issueFilter := bson.M{"$exists": true, "$ne": []interface{}{}}
	filter := bson.M{"issues": issueFilter}
	if urgentOnly {
		filter = bson.M{"issues": bson.M{"$elemMatch": bson.M{"urgent": true}}}
	}
	return r.findDeliveriesWithFilter(ctx, filter, params)
}

// Earnings aggregations over delivered deliveries
func (r *deliveryRepository) GetDeliveredInPeriod(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.Delivery, error) {
	filter := bson.M{
		"driver_id":            driverID,
		"status":               models.DeliveryStatusDelivered,
		"actual_delivery_time": bson.M{"$gte": start, "$lt": end},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find delivered deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	var deliveries []*models.Delivery
	for cursor.Next(ctx) {
		var delivery models.Delivery
		if err := cursor.Decode(&delivery); err != nil {
			return nil, fmt.Errorf("failed to decode delivery: %w", err)
		}
		deliveries = append(deliveries, &delivery)
	}

	return deliveries, nil
}

func (r *deliveryRepository) AggregateEarnings(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) (*models.EarningsTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"driver_id":            driverID,
			"status":               models.DeliveryStatusDelivered,
			"actual_delivery_time": bson.M{"$gte": start, "$lt": end},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":               nil,
			"base_fees":         bson.M{"$sum": "$earnings.base_fee"},
			"distance_bonuses":  bson.M{"$sum": "$earnings.distance_bonus"},
			"wait_time_bonuses": bson.M{"$sum": "$earnings.wait_time_bonus"},
			"peak_hour_bonuses": bson.M{"$sum": "$earnings.peak_hour_bonus"},
			"tips":              bson.M{"$sum": "$earnings.tip"},
			"adjustments_total": bson.M{"$sum": "$earnings.adjustments"},
			"total":             bson.M{"$sum": "$earnings.total"},
			"delivery_count":    bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate earnings: %w", err)
	}
	defer cursor.Close(ctx)

	// An empty window yields zero totals, not an error
	totals := &models.EarningsTotals{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(totals); err != nil {
			return nil, fmt.Errorf("failed to decode earnings totals: %w", err)
		}
	}

	return totals, nil
}

func (r *deliveryRepository) AggregateEarningsDaily(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.DailyEarnings, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"driver_id":            driverID,
			"status":               models.DeliveryStatusDelivered,
			"actual_delivery_time": bson.M{"$gte": start, "$lt": end},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$actual_delivery_time",
			}},
			"total":          bson.M{"$sum": "$earnings.total"},
			"tips":           bson.M{"$sum": "$earnings.tip"},
			"delivery_count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily earnings: %w", err)
	}
	defer cursor.Close(ctx)

	var days []*models.DailyEarnings
	for cursor.Next(ctx) {
		var day models.DailyEarnings
		if err := cursor.Decode(&day); err != nil {
			return nil, fmt.Errorf("failed to decode daily earnings: %w", err)
		}
		days = append(days, &day)
	}

	return days, nil
}

func (r *deliveryRepository) DriverIDsWithEarnings(ctx context.Context, start, end time.Time) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"status":               models.DeliveryStatusDelivered,
		"actual_delivery_time": bson.M{"$gte": start, "$lt": end},
		"earnings.total":       bson.M{"$gt": 0},
	}

	values, err := r.collection.Distinct(ctx, "driver_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers with earnings: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, value := range values {
		if id, ok := value.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Statistics
func (r *deliveryRepository) GetDeliveryStats(ctx context.Context, startDate, endDate time.Time) (map[string]interface{}, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"created_at": bson.M{"$gte": startDate, "$lte": endDate},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"total_deliveries": bson.M{"$sum": 1},
			"completed_deliveries": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.DeliveryStatusDelivered}}, 1, 0,
			}}},
			"cancelled_deliveries": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.DeliveryStatusCancelled}}, 1, 0,
			}}},
			"total_earnings": bson.M{"$sum": "$earnings.total"},
			"total_tips":     bson.M{"$sum": "$earnings.tip"},
			"avg_distance":   bson.M{"$avg": "$distance"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []map[string]interface{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode delivery stats: %w", err)
	}
	if len(results) == 0 {
		return map[string]interface{}{
			"total_deliveries":     0,
			"completed_deliveries": 0,
			"cancelled_deliveries": 0,
			"total_earnings":       0.0,
			"total_tips":           0.0,
			"avg_distance":         0.0,
		}, nil
	}

	return results[0], nil
}

// Helper methods
func (r *deliveryRepository) findDeliveriesWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Delivery, int64, error) {
	// Get total count
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count deliveries: %w", err)
	}

	// Get paginated results
	opts := params.GetSortOptions()
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	var deliveries []*models.Delivery
	for cursor.Next(ctx) {
		var delivery models.Delivery
		if err := cursor.Decode(&delivery); err != nil {
			return nil, 0, fmt.Errorf("failed to decode delivery: %w", err)
		}
		deliveries = append(deliveries, &delivery)
	}

	return deliveries, total, nil
}

func (r *deliveryRepository) cacheDelivery(ctx context.Context, delivery *models.Delivery) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("delivery:%s", delivery.ID.Hex())
		r.cache.Set(ctx, cacheKey, delivery, 15*time.Minute)
	}
}

func (r *deliveryRepository) getDeliveryFromCache(ctx context.Context, deliveryID string) *models.Delivery {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("delivery:%s", deliveryID)
	var delivery models.Delivery
	err := r.cache.Get(ctx, cacheKey, &delivery)
	if err != nil {
		return nil
	}

	return &delivery
}

func (r *deliveryRepository) invalidateDeliveryCache(ctx context.Context, deliveryID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("delivery:%s", deliveryID)
		r.cache.Delete(ctx, cacheKey)
	}
}
