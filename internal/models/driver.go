package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverStatus string
type VehicleType string

const (
	DriverStatusOnline     DriverStatus = "online"
	DriverStatusOffline    DriverStatus = "offline"
	DriverStatusOnDelivery DriverStatus = "on_delivery"
	DriverStatusSuspended  DriverStatus = "suspended"

	VehicleTypeBicycle   VehicleType = "bicycle"
	VehicleTypeScooter   VehicleType = "scooter"
	VehicleTypeMotorbike VehicleType = "motorbike"
	VehicleTypeCar       VehicleType = "car"
	VehicleTypeOnFoot    VehicleType = "on_foot"
)

type Driver struct {
	ID                  primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	FirstName           string              `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName            string              `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Email               string              `json:"email" bson:"email" validate:"required,email"`
	Phone               string              `json:"phone" bson:"phone" validate:"required"`
	CountryCode         string              `json:"country_code" bson:"country_code"`
	ProfilePicture      string              `json:"profile_picture" bson:"profile_picture"`
	Status              DriverStatus        `json:"status" bson:"status" default:"offline"`
	IsAvailable         bool                `json:"is_available" bson:"is_available" default:"false"`
	VehicleType         VehicleType         `json:"vehicle_type" bson:"vehicle_type"`
	CurrentDeliveryID   *primitive.ObjectID `json:"current_delivery_id" bson:"current_delivery_id"`
	CurrentLocation     *Location           `json:"current_location" bson:"current_location"`
	LastLocationUpdate  *time.Time          `json:"last_location_update" bson:"last_location_update"`
	Balance             DriverBalance       `json:"balance" bson:"balance"`
	BankAccount         *BankAccount        `json:"bank_account" bson:"bank_account"`
	TotalDeliveries     int64               `json:"total_deliveries" bson:"total_deliveries" default:"0"`
	CompletedDeliveries int64               `json:"completed_deliveries" bson:"completed_deliveries" default:"0"`
	DeviceTokens        []string            `json:"-" bson:"device_tokens"`
	CreatedAt           time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" bson:"updated_at"`
}

// DriverBalance tracks withdrawable funds. CurrentBalance never goes below
// zero; LifetimeEarnings only ever grows.
type DriverBalance struct {
	CurrentBalance   float64   `json:"current_balance" bson:"current_balance" default:"0"`
	LifetimeEarnings float64   `json:"lifetime_earnings" bson:"lifetime_earnings" default:"0"`
	Currency         string    `json:"currency" bson:"currency" default:"USD"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// BankAccount stores the payout destination. The full account number is kept
// encrypted at rest; only the last four digits are ever returned to clients.
type BankAccount struct {
	AccountName            string    `json:"account_name" bson:"account_name"`
	BankName               string    `json:"bank_name" bson:"bank_name"`
	RoutingNumber          string    `json:"routing_number" bson:"routing_number"`
	AccountNumberEncrypted string    `json:"-" bson:"account_number_encrypted"`
	AccountNumberLast4     string    `json:"account_number_last4" bson:"account_number_last4"`
	IsVerified             bool      `json:"is_verified" bson:"is_verified" default:"false"`
	UpdatedAt              time.Time `json:"updated_at" bson:"updated_at"`
}

func (d *Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}

func (d *Driver) HasVerifiedBankAccount() bool {
	return d.BankAccount != nil && d.BankAccount.IsVerified
}
