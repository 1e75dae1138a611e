package validators

import (
	"time"
)

type InstantPayoutRequest struct {
	Amount float64 `json:"amount" validate:"required,min=0.01"`
}

type BankAccountRequest struct {
	AccountName   string `json:"account_name" validate:"required,min=2,max=100"`
	BankName      string `json:"bank_name" validate:"required,min=2,max=100"`
	AccountNumber string `json:"account_number" validate:"required,account_number"`
	RoutingNumber string `json:"routing_number" validate:"required,routing_number"`
}

type PayoutAdjustmentRequest struct {
	Reason string  `json:"reason" validate:"required,min=5,max=255"`
	Amount float64 `json:"amount" validate:"required"`
}

type FailPayoutRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=255"`
}

type CancelPayoutRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=255"`
}

type CompletePayoutRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,min=4,max=100"`
	ProviderRef   string `json:"provider_ref" validate:"omitempty,max=100"`
}

// GenerateWeeklyPayoutsRequest names an explicit settlement window. The
// scheduled job derives its own window; this request backs the manual
// admin trigger.
type GenerateWeeklyPayoutsRequest struct {
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end" validate:"required"`
}

func ValidateInstantPayout(req *InstantPayoutRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateBankAccount(req *BankAccountRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidatePayoutAdjustment(req *PayoutAdjustmentRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.Amount == 0 {
		errors = append(errors, ValidationError{
			Field:   "amount",
			Message: "Adjustment amount cannot be zero",
		})
	}

	return errors
}

func ValidateFailPayout(req *FailPayoutRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateCancelPayout(req *CancelPayoutRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateCompletePayout(req *CompletePayoutRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateGenerateWeeklyPayouts(req *GenerateWeeklyPayoutsRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if !req.PeriodEnd.After(req.PeriodStart) {
		errors = append(errors, ValidationError{
			Field:   "period_end",
			Message: "Period end must be after period start",
		})
	}
	if req.PeriodEnd.Sub(req.PeriodStart) > 31*24*time.Hour {
		errors = append(errors, ValidationError{
			Field:   "period_end",
			Message: "Settlement window cannot exceed 31 days",
		})
	}

	return errors
}
