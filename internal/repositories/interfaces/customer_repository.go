package interfaces

import (
	"context"

	"swiftserve/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error
	RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error
}
