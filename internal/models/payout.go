package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PayoutType string
type PayoutStatus string

const (
	PayoutTypeWeekly  PayoutType = "weekly"
	PayoutTypeInstant PayoutType = "instant"

	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
	PayoutStatusCancelled  PayoutStatus = "cancelled"
)

type Payout struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	DriverID      primitive.ObjectID   `json:"driver_id" bson:"driver_id" validate:"required"`
	Reference     string               `json:"reference" bson:"reference" validate:"required"`
	Type          PayoutType           `json:"type" bson:"type" validate:"required"`
	Status        PayoutStatus         `json:"status" bson:"status" default:"pending"`
	PeriodStart   time.Time            `json:"period_start" bson:"period_start"`
	PeriodEnd     time.Time            `json:"period_end" bson:"period_end"`
	GrossAmount   float64              `json:"gross_amount" bson:"gross_amount" validate:"required"`
	InstantFee    float64              `json:"instant_fee" bson:"instant_fee" default:"0"`
	NetAmount     float64              `json:"net_amount" bson:"net_amount"`
	Currency      string               `json:"currency" bson:"currency" default:"USD"`
	Breakdown     PayoutBreakdown      `json:"breakdown" bson:"breakdown"`
	BankAccount   *BankAccount         `json:"bank_account" bson:"bank_account"`
	Provider      string               `json:"provider,omitempty" bson:"provider,omitempty"`
	DeliveryIDs   []primitive.ObjectID `json:"delivery_ids" bson:"delivery_ids"`
	Adjustments   []PayoutAdjustment   `json:"adjustments" bson:"adjustments"`
	RetryCount    int                  `json:"retry_count" bson:"retry_count" default:"0"`
	MaxRetries    int                  `json:"max_retries" bson:"max_retries" default:"3"`
	FailureReason string               `json:"failure_reason" bson:"failure_reason"`
	TransactionID string               `json:"transaction_id" bson:"transaction_id"`
	ProcessedAt   *time.Time           `json:"processed_at" bson:"processed_at"`
	CompletedAt   *time.Time           `json:"completed_at" bson:"completed_at"`
	FailedAt      *time.Time           `json:"failed_at" bson:"failed_at"`
	CancelledAt   *time.Time           `json:"cancelled_at" bson:"cancelled_at"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}

// PayoutBreakdown aggregates the earnings components covered by a payout.
type PayoutBreakdown struct {
	BaseFees         float64 `json:"base_fees" bson:"base_fees"`
	DistanceBonuses  float64 `json:"distance_bonuses" bson:"distance_bonuses"`
	WaitTimeBonuses  float64 `json:"wait_time_bonuses" bson:"wait_time_bonuses"`
	PeakHourBonuses  float64 `json:"peak_hour_bonuses" bson:"peak_hour_bonuses"`
	Tips             float64 `json:"tips" bson:"tips"`
	AdjustmentsTotal float64 `json:"adjustments_total" bson:"adjustments_total"`
}

type PayoutAdjustment struct {
	Reason  string             `json:"reason" bson:"reason" validate:"required"`
	Amount  float64            `json:"amount" bson:"amount" validate:"required"`
	AddedBy primitive.ObjectID `json:"added_by" bson:"added_by"`
	AddedAt time.Time          `json:"added_at" bson:"added_at"`
}

// Completion straight from pending covers manually settled payouts that
// never went through a gateway. Retry sends a failed payout back to pending
// rather than straight to processing so the normal processing path picks
// it up again.
var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:    {PayoutStatusProcessing, PayoutStatusCompleted, PayoutStatusFailed, PayoutStatusCancelled},
	PayoutStatusProcessing: {PayoutStatusCompleted, PayoutStatusFailed, PayoutStatusCancelled},
	PayoutStatusFailed:     {PayoutStatusPending, PayoutStatusCancelled},
	PayoutStatusCompleted:  {},
	PayoutStatusCancelled:  {},
}

func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	for _, allowed := range payoutTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusCompleted || s == PayoutStatusCancelled
}

// FundsHeld reports whether the payout amount is currently debited from the
// driver balance. Failed and cancelled payouts have been credited back;
// completed payouts have left the platform.
func (s PayoutStatus) FundsHeld() bool {
	return s == PayoutStatusPending || s == PayoutStatusProcessing
}

func (p *Payout) CanRetry() bool {
	return p.Status == PayoutStatusFailed && p.RetryCount < p.MaxRetries
}

// PayoutSummary is the view of funds still in flight, split both by status
// and by payout type.
type PayoutSummary struct {
	PendingCount      int64      `json:"pending_count" bson:"pending_count"`
	PendingAmount     float64    `json:"pending_amount" bson:"pending_amount"`
	ProcessingCount   int64      `json:"processing_count" bson:"processing_count"`
	ProcessingAmount  float64    `json:"processing_amount" bson:"processing_amount"`
	WeeklyHeldAmount  float64    `json:"weekly_held_amount" bson:"weekly_held_amount"`
	InstantHeldAmount float64    `json:"instant_held_amount" bson:"instant_held_amount"`
	LastCompletedAt   *time.Time `json:"last_completed_at,omitempty" bson:"last_completed_at,omitempty"`
}
