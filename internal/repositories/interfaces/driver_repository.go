package interfaces

import (
	"context"

	"swiftserve/internal/models"
	"swiftserve/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, driver *models.Driver) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error)
	GetByPhone(ctx context.Context, phone string) (*models.Driver, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Status and assignment
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus) error
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error
	SetCurrentDelivery(ctx context.Context, id primitive.ObjectID, deliveryID *primitive.ObjectID) error
	UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error

	// Balance mutations. Each is a single atomic Mongo update; callers
	// never read-modify-write balances.
	CreditEarnings(ctx context.Context, id primitive.ObjectID, amount float64) error
	CreditBalance(ctx context.Context, id primitive.ObjectID, amount float64) error
	DebitBalanceIfAvailable(ctx context.Context, id primitive.ObjectID, amount float64) (bool, error)
	DecrementBalanceClamped(ctx context.Context, id primitive.ObjectID, amount float64) error

	// Delivery counters
	IncrementDeliveryCounters(ctx context.Context, id primitive.ObjectID, completed bool) error

	// Payout destination
	UpdateBankAccount(ctx context.Context, id primitive.ObjectID, account *models.BankAccount) error

	// Push targets
	AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error
	RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error

	// Listing
	GetByStatus(ctx context.Context, status models.DriverStatus, params *utils.PaginationParams) ([]*models.Driver, int64, error)
}
