package services

import (
	"strings"

	"swiftserve/internal/models"
	"swiftserve/internal/utils"
)

// PODRequirements is the proof checklist a delivery must satisfy before it
// can complete. Requirements are additive; a high-value contactless alcohol
// order needs OTP, photo and signature all at once.
type PODRequirements struct {
	OTPRequired            bool `json:"otp_required"`
	PhotoRequired          bool `json:"photo_required"`
	SignatureRequired      bool `json:"signature_required"`
	CustomerConfirmAllowed bool `json:"customer_confirm_allowed"`
}

// Any reports whether at least one proof method is mandatory.
func (r PODRequirements) Any() bool {
	return r.OTPRequired || r.PhotoRequired || r.SignatureRequired
}

// PODPolicy derives proof requirements from order attributes.
type PODPolicy struct {
	highValueThreshold float64
}

func NewPODPolicy(highValueThreshold float64) *PODPolicy {
	if highValueThreshold <= 0 {
		highValueThreshold = utils.HighValueOrderThreshold
	}
	return &PODPolicy{highValueThreshold: highValueThreshold}
}

func (p *PODPolicy) Requirements(order *models.Order) PODRequirements {
	requirements := PODRequirements{
		CustomerConfirmAllowed: true,
	}

	if IsContactlessInstruction(order.DeliveryInstructions) {
		requirements.PhotoRequired = true
	}
	if order.Total >= p.highValueThreshold {
		requirements.OTPRequired = true
	}
	if order.RequiresIDCheck() {
		requirements.SignatureRequired = true
	}

	return requirements
}

// IsContactlessInstruction reports whether the delivery instructions ask for
// a no-contact drop-off.
func IsContactlessInstruction(instructions string) bool {
	if instructions == "" {
		return false
	}

	lowered := strings.ToLower(instructions)
	for _, keyword := range utils.ContactlessKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
