package models_test

import (
	"testing"

	"swiftserve/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPayoutStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from models.PayoutStatus
		to   models.PayoutStatus
		want bool
	}{
		{"pending to processing", models.PayoutStatusPending, models.PayoutStatusProcessing, true},
		{"pending straight to completed", models.PayoutStatusPending, models.PayoutStatusCompleted, true},
		{"pending to failed", models.PayoutStatusPending, models.PayoutStatusFailed, true},
		{"pending to cancelled", models.PayoutStatusPending, models.PayoutStatusCancelled, true},
		{"processing to completed", models.PayoutStatusProcessing, models.PayoutStatusCompleted, true},
		{"processing to failed", models.PayoutStatusProcessing, models.PayoutStatusFailed, true},
		{"processing back to pending", models.PayoutStatusProcessing, models.PayoutStatusPending, false},
		{"failed retries through pending", models.PayoutStatusFailed, models.PayoutStatusPending, true},
		{"failed cannot skip to processing", models.PayoutStatusFailed, models.PayoutStatusProcessing, false},
		{"failed to cancelled", models.PayoutStatusFailed, models.PayoutStatusCancelled, true},
		{"completed is terminal", models.PayoutStatusCompleted, models.PayoutStatusFailed, false},
		{"cancelled is terminal", models.PayoutStatusCancelled, models.PayoutStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPayoutStatusFundsHeld(t *testing.T) {
	assert.True(t, models.PayoutStatusPending.FundsHeld())
	assert.True(t, models.PayoutStatusProcessing.FundsHeld())
	assert.False(t, models.PayoutStatusCompleted.FundsHeld())
	assert.False(t, models.PayoutStatusFailed.FundsHeld())
	assert.False(t, models.PayoutStatusCancelled.FundsHeld())
}

func TestPayoutCanRetry(t *testing.T) {
	tests := []struct {
		name   string
		payout models.Payout
		want   bool
	}{
		{"failed under budget", models.Payout{Status: models.PayoutStatusFailed, RetryCount: 1, MaxRetries: 3}, true},
		{"failed at budget", models.Payout{Status: models.PayoutStatusFailed, RetryCount: 3, MaxRetries: 3}, false},
		{"pending never retries", models.Payout{Status: models.PayoutStatusPending, RetryCount: 0, MaxRetries: 3}, false},
		{"completed never retries", models.Payout{Status: models.PayoutStatusCompleted, RetryCount: 0, MaxRetries: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payout.CanRetry())
		})
	}
}
