package interfaces

import (
	"context"
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error
	MarkDelivered(ctx context.Context, id primitive.ObjectID, deliveredAt time.Time) error

	GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error)
}
