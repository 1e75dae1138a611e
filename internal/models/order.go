package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

type Order struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderNumber          string             `json:"order_number" bson:"order_number" validate:"required"`
	CustomerID           primitive.ObjectID `json:"customer_id" bson:"customer_id" validate:"required"`
	RestaurantName       string             `json:"restaurant_name" bson:"restaurant_name"`
	Status               OrderStatus        `json:"status" bson:"status" default:"confirmed"`
	Items                []OrderItem        `json:"items" bson:"items"`
	Subtotal             float64            `json:"subtotal" bson:"subtotal"`
	DeliveryFee          float64            `json:"delivery_fee" bson:"delivery_fee"`
	Tip                  float64            `json:"tip" bson:"tip" default:"0"`
	Total                float64            `json:"total" bson:"total" validate:"required"`
	Currency             string             `json:"currency" bson:"currency" default:"USD"`
	DeliveryInstructions string             `json:"delivery_instructions" bson:"delivery_instructions"`
	ContainsAlcohol      bool               `json:"contains_alcohol" bson:"contains_alcohol" default:"false"`
	AgeRestricted        bool               `json:"age_restricted" bson:"age_restricted" default:"false"`
	DeliveredAt          *time.Time         `json:"delivered_at" bson:"delivered_at"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	Name     string  `json:"name" bson:"name"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Price    float64 `json:"price" bson:"price"`
}

// RequiresIDCheck reports whether the order can only be handed to a verified
// adult recipient.
func (o *Order) RequiresIDCheck() bool {
	return o.AgeRestricted || o.ContainsAlcohol
}
