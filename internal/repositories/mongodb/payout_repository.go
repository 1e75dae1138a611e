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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// payoutRepository deliberately skips the read-through cache the other
// repositories use: payout state is money state and is always read fresh,
// including inside multi-document transactions.
type payoutRepository struct {
	collection *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) interfaces.PayoutRepository {
	return &payoutRepository{
		collection: db.Collection("payouts"),
	}
}

// Create inserts a payout. The unique index on
// (driver_id, type, period_start, period_end) turns a second weekly insert
// for the same window into ErrAlreadyExists.
func (r *payoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	if payout.ID.IsZero() {
		payout.ID = primitive.NewObjectID()
	}
	now := time.Now()
	payout.CreatedAt = now
	payout.UpdatedAt = now
	if payout.Status == "" {
		payout.Status = models.PayoutStatusPending
	}
	if payout.MaxRetries == 0 {
		payout.MaxRetries = utils.MaxPayoutRetries
	}
	if payout.Currency == "" {
		payout.Currency = utils.DefaultCurrency
	}

	_, err := r.collection.InsertOne(ctx, payout)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("payout for driver %s period %s: %w",
				payout.DriverID.Hex(), payout.PeriodStart.Format("2006-01-02"), services.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create payout: %w", err)
	}

	return nil
}

func (r *payoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error) {
	var payout models.Payout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payout %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}

	return &payout, nil
}

func (r *payoutRepository) GetByReference(ctx context.Context, reference string) (*models.Payout, error) {
	var payout models.Payout
	err := r.collection.FindOne(ctx, bson.M{"reference": reference}).Decode(&payout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payout %s: %w", reference, services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payout by reference: %w", err)
	}

	return &payout, nil
}

func (r *payoutRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("payout %s: %w", id.Hex(), services.ErrNotFound)
	}

	return nil
}

// UpdateStatusIf flips the status in one conditional update. The filter only
// matches while the payout still sits in one of from, so two concurrent
// transitions cannot both win.
func (r *payoutRepository) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from []models.PayoutStatus, to models.PayoutStatus, updates map[string]interface{}) error {
	now := time.Now()
	set := bson.M{
		"status":     to,
		"updated_at": now,
	}
	for key, value := range updates {
		set[key] = value
	}

	// Stamp the milestone that corresponds to the new status
	switch to {
	case models.PayoutStatusProcessing:
		set["processed_at"] = now
	case models.PayoutStatusCompleted:
		set["completed_at"] = now
	case models.PayoutStatusFailed:
		set["failed_at"] = now
	case models.PayoutStatusCancelled:
		set["cancelled_at"] = now
	}

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payout status: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing payout from one in the wrong state
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to check payout: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("payout %s: %w", id.Hex(), services.ErrNotFound)
		}
		return fmt.Errorf("payout cannot move to %s from its current status: %w", to, services.ErrPrecondition)
	}

	return nil
}

// AddAdjustment appends the adjustment and moves gross, net and the breakdown
// total in the same update. Only pending payouts accept adjustments.
func (r *payoutRepository) AddAdjustment(ctx context.Context, id primitive.ObjectID, adjustment *models.PayoutAdjustment) error {
	if adjustment.AddedAt.IsZero() {
		adjustment.AddedAt = time.Now()
	}

	filter := bson.M{
		"_id":    id,
		"status": models.PayoutStatusPending,
	}
	update := bson.M{
		"$push": bson.M{"adjustments": adjustment},
		"$inc": bson.M{
			"gross_amount":                adjustment.Amount,
			"net_amount":                  adjustment.Amount,
			"breakdown.adjustments_total": adjustment.Amount,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add payout adjustment: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to check payout: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("payout %s: %w", id.Hex(), services.ErrNotFound)
		}
		return fmt.Errorf("payout is no longer pending: %w", services.ErrPrecondition)
	}

	return nil
}

func (r *payoutRepository) ExistsForPeriod(ctx context.Context, driverID primitive.ObjectID, payoutType models.PayoutType, periodStart, periodEnd time.Time) (bool, error) {
	filter := bson.M{
		"driver_id":    driverID,
		"type":         payoutType,
		"period_start": periodStart,
		"period_end":   periodEnd,
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check payout period: %w", err)
	}

	return count > 0, nil
}

// Listing and reporting
func (r *payoutRepository) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	filter := bson.M{"driver_id": driverID}
	return r.findPayoutsWithFilter(ctx, filter, params)
}

func (r *payoutRepository) List(ctx context.Context, filter *interfaces.PayoutFilter, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	query := bson.M{}
	if filter != nil {
		if filter.DriverID != nil {
			query["driver_id"] = *filter.DriverID
		}
		if filter.Status != "" {
			query["status"] = filter.Status
		}
		if filter.Type != "" {
			query["type"] = filter.Type
		}
		dateRange := bson.M{}
		if filter.From != nil {
			dateRange["$gte"] = *filter.From
		}
		if filter.To != nil {
			dateRange["$lt"] = *filter.To
		}
		if len(dateRange) > 0 {
			query["created_at"] = dateRange
		}
	}

	return r.findPayoutsWithFilter(ctx, query, params)
}

func (r *payoutRepository) GetPending(ctx context.Context, limit int) ([]*models.Payout, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"status": models.PayoutStatusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending payouts: %w", err)
	}
	defer cursor.Close(ctx)

	var payouts []*models.Payout
	for cursor.Next(ctx) {
		var payout models.Payout
		if err := cursor.Decode(&payout); err != nil {
			return nil, fmt.Errorf("failed to decode payout: %w", err)
		}
		payouts = append(payouts, &payout)
	}

	return payouts, nil
}

// PendingSummary aggregates payouts that still hold funds. A zero driverID
// summarizes the whole fleet.
func (r *payoutRepository) PendingSummary(ctx context.Context, driverID primitive.ObjectID) (*models.PayoutSummary, error) {
	match := bson.M{
		"status": bson.M{"$in": []models.PayoutStatus{
			models.PayoutStatusPending,
			models.PayoutStatusProcessing,
		}},
	}
	if !driverID.IsZero() {
		match["driver_id"] = driverID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":    bson.M{"status": "$status", "type": "$type"},
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$net_amount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize payouts: %w", err)
	}
	defer cursor.Close(ctx)

	summary := &models.PayoutSummary{}
	for cursor.Next(ctx) {
		var bucket struct {
			Key struct {
				Status models.PayoutStatus `bson:"status"`
				Type   models.PayoutType   `bson:"type"`
			} `bson:"_id"`
			Count  int64   `bson:"count"`
			Amount float64 `bson:"amount"`
		}
		if err := cursor.Decode(&bucket); err != nil {
			return nil, fmt.Errorf("failed to decode payout summary: %w", err)
		}

		switch bucket.Key.Status {
		case models.PayoutStatusPending:
			summary.PendingCount += bucket.Count
			summary.PendingAmount += bucket.Amount
		case models.PayoutStatusProcessing:
			summary.ProcessingCount += bucket.Count
			summary.ProcessingAmount += bucket.Amount
		}
		switch bucket.Key.Type {
		case models.PayoutTypeWeekly:
			summary.WeeklyHeldAmount += bucket.Amount
		case models.PayoutTypeInstant:
			summary.InstantHeldAmount += bucket.Amount
		}
	}

	// Last successful payout, if any
	completedFilter := bson.M{"status": models.PayoutStatusCompleted}
	if !driverID.IsZero() {
		completedFilter["driver_id"] = driverID
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "completed_at", Value: -1}})
	var last models.Payout
	err = r.collection.FindOne(ctx, completedFilter, opts).Decode(&last)
	if err == nil {
		summary.LastCompletedAt = last.CompletedAt
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to get last completed payout: %w", err)
	}

	return summary, nil
}

func (r *payoutRepository) GetStatistics(ctx context.Context, startDate, endDate time.Time) (map[string]interface{}, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"created_at": bson.M{"$gte": startDate, "$lte": endDate},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"total_payouts": bson.M{"$sum": 1},
			"completed_payouts": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.PayoutStatusCompleted}}, 1, 0,
			}}},
			"failed_payouts": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.PayoutStatusFailed}}, 1, 0,
			}}},
			"cancelled_payouts": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.PayoutStatusCancelled}}, 1, 0,
			}}},
			"instant_payouts": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$type", models.PayoutTypeInstant}}, 1, 0,
			}}},
			"total_paid_out": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.PayoutStatusCompleted}}, "$net_amount", 0,
			}}},
			"total_fees_collected": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.PayoutStatusCompleted}}, "$instant_fee", 0,
			}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout statistics: %w", err)
	}
	defer cursor.Close(ctx)

	var results []map[string]interface{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode payout statistics: %w", err)
	}
	if len(results) == 0 {
		return map[string]interface{}{
			"total_payouts":        0,
			"completed_payouts":    0,
			"failed_payouts":       0,
			"cancelled_payouts":    0,
			"instant_payouts":      0,
			"total_paid_out":       0.0,
			"total_fees_collected": 0.0,
		}, nil
	}

	return results[0], nil
}

// Helper methods
func (r *payoutRepository) findPayoutsWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	// Get total count
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payouts: %w", err)
	}

	// Get paginated results
	opts := params.GetSortOptions()
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find payouts: %w", err)
	}
	defer cursor.Close(ctx)

	var payouts []*models.Payout
	for cursor.Next(ctx) {
		var payout models.Payout
		if err := cursor.Decode(&payout); err != nil {
			return nil, 0, fmt.Errorf("failed to decode payout: %w", err)
		}
		payouts = append(payouts, &payout)
	}

	return payouts, total, nil
}
