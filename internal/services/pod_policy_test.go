package services_test

import (
	"testing"

	"swiftserve/internal/models"
	"swiftserve/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestPODPolicyRequirements(t *testing.T) {
	policy := services.NewPODPolicy(50)

	tests := []struct {
		name  string
		order *models.Order
		want  services.PODRequirements
	}{
		{
			name:  "plain low value order needs nothing",
			order: &models.Order{Total: 18.40},
			want:  services.PODRequirements{CustomerConfirmAllowed: true},
		},
		{
			name:  "contactless instruction requires photo",
			order: &models.Order{Total: 18.40, DeliveryInstructions: "Please leave at the door"},
			want:  services.PODRequirements{PhotoRequired: true, CustomerConfirmAllowed: true},
		},
		{
			name:  "high value order requires OTP",
			order: &models.Order{Total: 82.00},
			want:  services.PODRequirements{OTPRequired: true, CustomerConfirmAllowed: true},
		},
		{
			name:  "threshold is inclusive",
			order: &models.Order{Total: 50.00},
			want:  services.PODRequirements{OTPRequired: true, CustomerConfirmAllowed: true},
		},
		{
			name:  "alcohol requires signature",
			order: &models.Order{Total: 30.00, ContainsAlcohol: true},
			want:  services.PODRequirements{SignatureRequired: true, CustomerConfirmAllowed: true},
		},
		{
			name:  "age restricted requires signature",
			order: &models.Order{Total: 30.00, AgeRestricted: true},
			want:  services.PODRequirements{SignatureRequired: true, CustomerConfirmAllowed: true},
		},
		{
			name: "requirements stack",
			order: &models.Order{
				Total:                120.00,
				ContainsAlcohol:      true,
				DeliveryInstructions: "no contact please, ring the bell",
			},
			want: services.PODRequirements{
				OTPRequired:            true,
				PhotoRequired:          true,
				SignatureRequired:      true,
				CustomerConfirmAllowed: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Requirements(tt.order)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPODPolicyDefaultThreshold(t *testing.T) {
	// Zero or negative thresholds fall back to the built-in default.
	policy := services.NewPODPolicy(0)

	assert.True(t, policy.Requirements(&models.Order{Total: 55}).OTPRequired)
	assert.False(t, policy.Requirements(&models.Order{Total: 45}).OTPRequired)
}

func TestIsContactlessInstruction(t *testing.T) {
	tests := []struct {
		name         string
		instructions string
		want         bool
	}{
		{"empty", "", false},
		{"unrelated note", "Gate code is 4412", false},
		{"leave at", "Leave at the porch please", true},
		{"mixed case", "CONTACTLESS drop off", true},
		{"no contact", "no contact delivery", true},
		{"french", "Livraison sans contact svp", true},
		{"spanish", "entrega sin contacto", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.IsContactlessInstruction(tt.instructions))
		})
	}
}

func TestPODRequirementsAny(t *testing.T) {
	assert.False(t, services.PODRequirements{CustomerConfirmAllowed: true}.Any())
	assert.True(t, services.PODRequirements{PhotoRequired: true}.Any())
	assert.True(t, services.PODRequirements{OTPRequired: true}.Any())
	assert.True(t, services.PODRequirements{SignatureRequired: true}.Any())
}
