package push

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/token"
)

type APNSProvider struct {
	client *apns2.Client
	topic  string
}

func NewAPNSProvider(keyFile, keyID, teamID, topic string, production bool) (*APNSProvider, error) {
	authKey, err := token.AuthKeyFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth key: %w", err)
	}

	tokenProvider := &token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	}

	client := apns2.NewTokenClient(tokenProvider)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSProvider{
		client: client,
		topic:  topic,
	}, nil
}

func (a *APNSProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	response, err := a.client.PushWithContext(ctx, a.buildNotification(request))
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, err
	}

	if response.Sent() {
		return &NotificationResponse{
			MessageID: response.ApnsID,
			Success:   true,
			Token:     request.Token,
		}, nil
	}

	return &NotificationResponse{
		Success: false,
		Error:   response.Reason,
		Token:   request.Token,
	}, fmt.Errorf("APNS error: %s", response.Reason)
}

// SendBulkNotifications sends sequentially; APNS has no batch API.
func (a *APNSProvider) SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error) {
	responses := make([]*NotificationResponse, len(requests))

	for i, req := range requests {
		response, err := a.SendNotification(ctx, req)
		if err != nil {
			response = &NotificationResponse{
				Success: false,
				Error:   err.Error(),
				Token:   req.Token,
			}
		}
		responses[i] = response
	}

	return responses, nil
}

func (a *APNSProvider) buildNotification(request *NotificationRequest) *apns2.Notification {
	aps := map[string]interface{}{}

	if request.Title != "" || request.Body != "" {
		alert := map[string]interface{}{}
		if request.Title != "" {
			alert["title"] = request.Title
		}
		if request.Body != "" {
			alert["body"] = request.Body
		}
		aps["alert"] = alert
	}

	if request.Sound != "" {
		aps["sound"] = request.Sound
	}
	if request.Badge > 0 {
		aps["badge"] = request.Badge
	}

	payload := map[string]interface{}{"aps": aps}
	for key, value := range request.Data {
		payload[key] = value
	}

	notification := &apns2.Notification{
		DeviceToken: request.Token,
		Topic:       a.topic,
		Payload:     payload,
	}

	if request.Priority == "high" {
		notification.Priority = apns2.PriorityHigh
	} else {
		notification.Priority = apns2.PriorityLow
	}

	return notification
}
