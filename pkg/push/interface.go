package push

import "context"

// PushProvider delivers courier and customer notifications (delivery
// status changes, payout events) to registered device tokens.
type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
	// SendBulkNotifications reports per-token outcomes; a stale token
	// fails its own entry without failing the batch.
	SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error)
}

type NotificationRequest struct {
	Token    string            `json:"token"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Badge    int               `json:"badge,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}
