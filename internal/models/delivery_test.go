package models_test

import (
	"testing"

	"swiftserve/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from models.DeliveryStatus
		to   models.DeliveryStatus
		want bool
	}{
		{"one step forward", models.DeliveryStatusAssigned, models.DeliveryStatusArrivingRestaurant, true},
		{"skipping stages forward", models.DeliveryStatusAssigned, models.DeliveryStatusInTransit, true},
		{"straight to delivered", models.DeliveryStatusInTransit, models.DeliveryStatusDelivered, true},
		{"no going backwards", models.DeliveryStatusInTransit, models.DeliveryStatusPickedUp, false},
		{"no self transition", models.DeliveryStatusArrived, models.DeliveryStatusArrived, false},
		{"cancel from any live status", models.DeliveryStatusAtRestaurant, models.DeliveryStatusCancelled, true},
		{"delivered is terminal", models.DeliveryStatusDelivered, models.DeliveryStatusCancelled, false},
		{"cancelled is terminal", models.DeliveryStatusCancelled, models.DeliveryStatusAssigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestDeliveryStatusIsTerminal(t *testing.T) {
	assert.True(t, models.DeliveryStatusDelivered.IsTerminal())
	assert.True(t, models.DeliveryStatusCancelled.IsTerminal())
	for _, status := range models.ActiveDeliveryStatuses() {
		assert.False(t, status.IsTerminal(), string(status))
	}
}

func TestDeliveryStatusHeadingToPickup(t *testing.T) {
	assert.True(t, models.DeliveryStatusAssigned.HeadingToPickup())
	assert.True(t, models.DeliveryStatusAtRestaurant.HeadingToPickup())
	assert.False(t, models.DeliveryStatusPickedUp.HeadingToPickup())
	assert.False(t, models.DeliveryStatusInTransit.HeadingToPickup())
}

func TestOrderRequiresIDCheck(t *testing.T) {
	assert.False(t, (&models.Order{}).RequiresIDCheck())
	assert.True(t, (&models.Order{ContainsAlcohol: true}).RequiresIDCheck())
	assert.True(t, (&models.Order{AgeRestricted: true}).RequiresIDCheck())
}
