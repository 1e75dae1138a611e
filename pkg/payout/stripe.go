package payout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeProvider struct {
	client        *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeProvider{
		client:        sc,
		webhookSecret: webhookSecret,
	}
}

func (s *StripeProvider) CreateTransfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(int64(request.Amount * 100)), // Convert to cents
		Currency:      stripe.String(request.Currency),
		Destination:   stripe.String(request.Destination),
		Description:   stripe.String(request.Description),
		TransferGroup: stripe.String(request.Reference),
	}
	params.SetIdempotencyKey(request.Reference)

	// Add metadata
	if request.Metadata != nil {
		for key, value := range request.Metadata {
			params.AddMetadata(key, fmt.Sprintf("%v", value))
		}
	}

	tr, err := s.client.Transfers.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	return &TransferResponse{
		TransferID: tr.ID,
		Status:     stripeTransferStatus(tr),
		Amount:     float64(tr.Amount) / 100,
		Currency:   string(tr.Currency),
		CreatedAt:  tr.Created,
		Metadata:   convertStripeMetadata(tr.Metadata),
	}, nil
}

func (s *StripeProvider) GetTransfer(ctx context.Context, transferID string) (*TransferResponse, error) {
	tr, err := s.client.Transfers.Get(transferID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transfer: %w", err)
	}

	return &TransferResponse{
		TransferID: tr.ID,
		Status:     stripeTransferStatus(tr),
		Amount:     float64(tr.Amount) / 100,
		Currency:   string(tr.Currency),
		CreatedAt:  tr.Created,
		Metadata:   convertStripeMetadata(tr.Metadata),
	}, nil
}

func (s *StripeProvider) ReverseTransfer(ctx context.Context, request *ReversalRequest) (*ReversalResponse, error) {
	params := &stripe.TransferReversalParams{
		ID:          stripe.String(request.TransferID),
		Description: stripe.String(request.Reason),
	}

	if request.Amount > 0 {
		params.Amount = stripe.Int64(int64(request.Amount * 100))
	}

	rev, err := s.client.TransferReversals.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse transfer: %w", err)
	}

	return &ReversalResponse{
		ReversalID: rev.ID,
		Status:     "reversed",
		Amount:     float64(rev.Amount) / 100,
		Currency:   string(rev.Currency),
		CreatedAt:  rev.Created,
	}, nil
}

func (s *StripeProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	data := make(map[string]interface{})
	if err := json.Unmarshal(event.Data.Raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	return &WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Data:      data,
		CreatedAt: event.Created,
	}, nil
}

// Helper functions
func stripeTransferStatus(tr *stripe.Transfer) string {
	if tr.Reversed {
		return "reversed"
	}
	if tr.AmountReversed > 0 {
		return "partially_reversed"
	}
	return "paid"
}

func convertStripeMetadata(metadata map[string]string) map[string]interface{} {
	result := make(map[string]interface{})
	for key, value := range metadata {
		result[key] = value
	}
	return result
}
