package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Customer struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName      string             `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName       string             `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Email          string             `json:"email" bson:"email" validate:"required,email"`
	Phone          string             `json:"phone" bson:"phone" validate:"required"`
	CountryCode    string             `json:"country_code" bson:"country_code"`
	ProfilePicture string             `json:"profile_picture" bson:"profile_picture"`
	DeviceTokens   []string           `json:"-" bson:"device_tokens"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
