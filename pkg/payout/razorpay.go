package payout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
)

type RazorpayProvider struct {
	client        *razorpay.Client
	webhookSecret string
}

func NewRazorpayProvider(keyID, keySecret, webhookSecret string) *RazorpayProvider {
	client := razorpay.NewClient(keyID, keySecret)

	return &RazorpayProvider{
		client:        client,
		webhookSecret: webhookSecret,
	}
}

func (r *RazorpayProvider) CreateTransfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error) {
	transferData := map[string]interface{}{
		"account":  request.Destination,
		"amount":   int(request.Amount * 100), // Amount in paise
		"currency": request.Currency,
		"notes": map[string]interface{}{
			"reference":   request.Reference,
			"description": request.Description,
		},
	}

	transfer, err := r.client.Transfer.Create(transferData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	return &TransferResponse{
		TransferID: transfer["id"].(string),
		Status:     "processed",
		Amount:     float64(transfer["amount"].(int)) / 100,
		Currency:   transfer["currency"].(string),
		CreatedAt:  int64(transfer["created_at"].(int)),
	}, nil
}

func (r *RazorpayProvider) GetTransfer(ctx context.Context, transferID string) (*TransferResponse, error) {
	transfer, err := r.client.Transfer.Fetch(transferID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transfer: %w", err)
	}

	status := "processed"
	if reversed, ok := transfer["amount_reversed"].(int); ok && reversed > 0 {
		status = "reversed"
	}

	return &TransferResponse{
		TransferID: transfer["id"].(string),
		Status:     status,
		Amount:     float64(transfer["amount"].(int)) / 100,
		Currency:   transfer["currency"].(string),
		CreatedAt:  int64(transfer["created_at"].(int)),
	}, nil
}

func (r *RazorpayProvider) ReverseTransfer(ctx context.Context, request *ReversalRequest) (*ReversalResponse, error) {
	reversalData := map[string]interface{}{
		"notes": map[string]interface{}{
			"reason": request.Reason,
		},
	}

	if request.Amount > 0 {
		reversalData["amount"] = int(request.Amount * 100)
	}

	reversal, err := r.client.Transfer.Reverse(request.TransferID, reversalData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse transfer: %w", err)
	}

	return &ReversalResponse{
		ReversalID: reversal["id"].(string),
		Status:     "reversed",
		Amount:     float64(reversal["amount"].(int)) / 100,
		Currency:   reversal["currency"].(string),
		CreatedAt:  int64(reversal["created_at"].(int)),
	}, nil
}

func (r *RazorpayProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	// Verify webhook signature
	expectedSignature := r.generateSignature(string(payload))
	if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event map[string]interface{}
	err := json.Unmarshal(payload, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}

	eventID, _ := event["id"].(string)
	eventType, _ := event["event"].(string)

	return &WebhookEvent{
		EventID:   eventID,
		EventType: eventType,
		Data:      event,
		CreatedAt: time.Now().Unix(),
	}, nil
}

func (r *RazorpayProvider) generateSignature(payload string) string {
	h := hmac.New(sha256.New, []byte(r.webhookSecret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
