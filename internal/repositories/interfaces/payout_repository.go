package interfaces

import (
	"context"
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PayoutFilter narrows admin payout listings. Zero values mean "any".
type PayoutFilter struct {
	DriverID *primitive.ObjectID
	Status   models.PayoutStatus
	Type     models.PayoutType
	From     *time.Time
	To       *time.Time
}

type PayoutRepository interface {
	// Create inserts a payout. A duplicate weekly period insert surfaces
	// as ErrAlreadyExists so callers can treat it as a skip.
	Create(ctx context.Context, payout *models.Payout) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error)
	GetByReference(ctx context.Context, reference string) (*models.Payout, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// UpdateStatusIf flips status only when the current status is one of
	// from; reports ErrPrecondition otherwise.
	UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from []models.PayoutStatus, to models.PayoutStatus, updates map[string]interface{}) error

	// AddAdjustment appends an adjustment to a pending payout and moves
	// gross/net/breakdown by its amount in the same atomic update.
	AddAdjustment(ctx context.Context, id primitive.ObjectID, adjustment *models.PayoutAdjustment) error

	ExistsForPeriod(ctx context.Context, driverID primitive.ObjectID, payoutType models.PayoutType, periodStart, periodEnd time.Time) (bool, error)

	// Listing and reporting
	GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error)
	List(ctx context.Context, filter *PayoutFilter, params *utils.PaginationParams) ([]*models.Payout, int64, error)
	GetPending(ctx context.Context, limit int) ([]*models.Payout, error)
	PendingSummary(ctx context.Context, driverID primitive.ObjectID) (*models.PayoutSummary, error)
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (map[string]interface{}, error)
}
