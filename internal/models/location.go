package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Location struct {
	Type        string    `json:"type" bson:"type" default:"Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
	Address     string    `json:"address" bson:"address"`
	City        string    `json:"city" bson:"city"`
	State       string    `json:"state" bson:"state"`
	Country     string    `json:"country" bson:"country"`
	PostalCode  string    `json:"postal_code" bson:"postal_code"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) >= 2 {
		return l.Coordinates[1]
	}
	return 0
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) >= 1 {
		return l.Coordinates[0]
	}
	return 0
}

// DriverLocation is the live courier position kept in Redis under
// driver_location:<driverID>. It expires when updates stop.
type DriverLocation struct {
	DriverID  primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	Latitude  float64            `json:"latitude" bson:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64            `json:"longitude" bson:"longitude" validate:"required,min=-180,max=180"`
	Heading   *float64           `json:"heading,omitempty" bson:"heading,omitempty"`
	Speed     *float64           `json:"speed,omitempty" bson:"speed,omitempty"`
	Accuracy  *float64           `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}

// DeliveryTracking is the cached tracking snapshot kept in Redis under
// delivery_tracking:<deliveryID> for the lifetime of the delivery.
type DeliveryTracking struct {
	DeliveryID      primitive.ObjectID `json:"delivery_id"`
	OrderID         primitive.ObjectID `json:"order_id"`
	DriverID        primitive.ObjectID `json:"driver_id"`
	Status          DeliveryStatus     `json:"status"`
	PickupLocation  Location           `json:"pickup_location"`
	DropoffLocation Location           `json:"dropoff_location"`
	ETAMinutes      int                `json:"eta_minutes"`
	DistanceMeters  float64            `json:"distance_meters"`
	DriverLocation  *DriverLocation    `json:"driver_location,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
