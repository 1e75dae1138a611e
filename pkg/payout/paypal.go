package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type PayPalProvider struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
}

type PayPalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type PayPalPayoutRequest struct {
	SenderBatchHeader PayPalBatchHeader  `json:"sender_batch_header"`
	Items             []PayPalPayoutItem `json:"items"`
}

type PayPalBatchHeader struct {
	SenderBatchID string `json:"sender_batch_id"`
	EmailSubject  string `json:"email_subject,omitempty"`
}

type PayPalPayoutItem struct {
	RecipientType string       `json:"recipient_type"`
	Amount        PayPalAmount `json:"amount"`
	Receiver      string       `json:"receiver"`
	Note          string       `json:"note,omitempty"`
	SenderItemID  string       `json:"sender_item_id"`
}

type PayPalAmount struct {
	CurrencyCode string `json:"currency"`
	Value        string `json:"value"`
}

func NewPayPalProvider(clientID, clientSecret, mode string) *PayPalProvider {
	baseURL := "https://api.sandbox.paypal.com"
	if mode == "live" {
		baseURL = "https://api.paypal.com"
	}

	return &PayPalProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PayPalProvider) CreateTransfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error) {
	token, err := p.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	payoutRequest := PayPalPayoutRequest{
		SenderBatchHeader: PayPalBatchHeader{
			// The batch ID doubles as the idempotency key; PayPal rejects
			// a repeated sender_batch_id instead of paying twice.
			SenderBatchID: request.Reference,
			EmailSubject:  "You have a payout",
		},
		Items: []PayPalPayoutItem{
			{
				RecipientType: "EMAIL",
				Amount: PayPalAmount{
					CurrencyCode: strings.ToUpper(request.Currency),
					Value:        fmt.Sprintf("%.2f", request.Amount),
				},
				Receiver:     request.Destination,
				Note:         request.Description,
				SenderItemID: request.Reference,
			},
		},
	}

	reqBody, err := json.Marshal(payoutRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/payments/payouts", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("PayPal API error: %s", string(body))
	}

	var result map[string]interface{}
	err = json.Unmarshal(body, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	batchID, status := parsePayPalBatchHeader(result)

	return &TransferResponse{
		TransferID: batchID,
		Status:     strings.ToLower(status),
		Amount:     request.Amount,
		Currency:   strings.ToUpper(request.Currency),
		CreatedAt:  time.Now().Unix(),
	}, nil
}

func (p *PayPalProvider) GetTransfer(ctx context.Context, transferID string) (*TransferResponse, error) {
	token, err := p.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/v1/payments/payouts/%s", p.baseURL, transferID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PayPal API error: %s", string(body))
	}

	var result map[string]interface{}
	err = json.Unmarshal(body, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	batchID, status := parsePayPalBatchHeader(result)

	return &TransferResponse{
		TransferID: batchID,
		Status:     strings.ToLower(status),
		CreatedAt:  time.Now().Unix(),
	}, nil
}

func (p *PayPalProvider) ReverseTransfer(ctx context.Context, request *ReversalRequest) (*ReversalResponse, error) {
	token, err := p.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	// Payout items can only be cancelled while UNCLAIMED.
	req, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/v1/payments/payouts-item/%s/cancel", p.baseURL, request.TransferID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PayPal API error: %s", string(body))
	}

	var result map[string]interface{}
	err = json.Unmarshal(body, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	itemID, _ := result["payout_item_id"].(string)
	status, _ := result["transaction_status"].(string)

	return &ReversalResponse{
		ReversalID: itemID,
		Status:     strings.ToLower(status),
		Amount:     request.Amount,
		CreatedAt:  time.Now().Unix(),
	}, nil
}

func (p *PayPalProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	var event map[string]interface{}
	err := json.Unmarshal(payload, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}

	eventID, _ := event["id"].(string)
	eventType, _ := event["event_type"].(string)

	return &WebhookEvent{
		EventID:   eventID,
		EventType: eventType,
		Data:      event,
		CreatedAt: time.Now().Unix(),
	}, nil
}

func (p *PayPalProvider) getAccessToken(ctx context.Context) (string, error) {
	data := "grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/oauth2/token", strings.NewReader(data))
	if err != nil {
		return "", err
	}

	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var tokenResp PayPalTokenResponse
	err = json.NewDecoder(resp.Body).Decode(&tokenResp)
	if err != nil {
		return "", err
	}

	return tokenResp.AccessToken, nil
}

func parsePayPalBatchHeader(result map[string]interface{}) (batchID, status string) {
	header, ok := result["batch_header"].(map[string]interface{})
	if !ok {
		return "", ""
	}

	batchID, _ = header["payout_batch_id"].(string)
	status, _ = header["batch_status"].(string)
	return batchID, status
}
