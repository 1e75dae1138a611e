package interfaces

import (
	"context"
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, delivery *models.Delivery) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error)
	GetByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Delivery, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Status operations
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DeliveryStatus) error
	CompleteWithProof(ctx context.Context, id primitive.ObjectID, proof *models.ProofOfDelivery, earnings *models.DeliveryEarnings, allowedFrom []models.DeliveryStatus) error
	Cancel(ctx context.Context, id primitive.ObjectID, reason, cancelledBy string) error

	// Proof staging before completion
	SetProofFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error
	MarkOTPVerified(ctx context.Context, id primitive.ObjectID) error

	// Issues
	AddIssue(ctx context.Context, id primitive.ObjectID, issue *models.DeliveryIssue) error

	// Search and filtering
	GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Delivery, int64, error)
	GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Delivery, int64, error)
	GetActiveByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.Delivery, error)
	GetWithOpenIssues(ctx context.Context, urgentOnly bool, params *utils.PaginationParams) ([]*models.Delivery, int64, error)

	// Earnings aggregations over delivered deliveries
	GetDeliveredInPeriod(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.Delivery, error)
	AggregateEarnings(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) (*models.EarningsTotals, error)
	AggregateEarningsDaily(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.DailyEarnings, error)
	DriverIDsWithEarnings(ctx context.Context, start, end time.Time) ([]primitive.ObjectID, error)

	// Statistics
	GetDeliveryStats(ctx context.Context, startDate, endDate time.Time) (map[string]interface{}, error)
}
