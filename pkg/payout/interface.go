package payout

import (
	"context"
)

// DisbursementProvider moves settled driver earnings to an external
// account. Transfers are referenced by our payout reference so retries
// hit the provider's idempotency layer instead of paying twice.
type DisbursementProvider interface {
	CreateTransfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error)
	GetTransfer(ctx context.Context, transferID string) (*TransferResponse, error)
	ReverseTransfer(ctx context.Context, request *ReversalRequest) (*ReversalResponse, error)
	ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type TransferRequest struct {
	Reference   string                 `json:"reference"`
	Destination string                 `json:"destination"`
	Amount      float64                `json:"amount"`
	Currency    string                 `json:"currency"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type TransferResponse struct {
	TransferID string                 `json:"transfer_id"`
	Status     string                 `json:"status"`
	Amount     float64                `json:"amount"`
	Currency   string                 `json:"currency"`
	CreatedAt  int64                  `json:"created_at"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type ReversalRequest struct {
	TransferID string  `json:"transfer_id"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

type ReversalResponse struct {
	ReversalID string  `json:"reversal_id"`
	Status     string  `json:"status"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	CreatedAt  int64   `json:"created_at"`
}

type WebhookEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt int64                  `json:"created_at"`
}
