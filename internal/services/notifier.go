package services

import (
	"context"
	"fmt"

	"swiftserve/pkg/logger"
	"swiftserve/pkg/push"
	"swiftserve/pkg/sms"
)

// SMSService sends transactional SMS to customers and couriers.
type SMSService interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// PushService fans one notification out to a set of device tokens.
type PushService interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

type smsService struct {
	provider sms.SMSProvider
	from     string
	logger   *logger.Logger
}

func NewSMSService(provider sms.SMSProvider, from string, logger *logger.Logger) SMSService {
	return &smsService{
		provider: provider,
		from:     from,
		logger:   logger,
	}
}

func (s *smsService) SendSMS(ctx context.Context, phone, message string) error {
	// No provider configured means a development environment; the message
	// is logged instead of sent.
	if s.provider == nil {
		s.logger.WithField("phone", phone).Debug("SMS provider not configured, dropping message")
		return nil
	}

	response, err := s.provider.SendSMS(ctx, &sms.SMSRequest{
		To:      phone,
		From:    s.from,
		Message: message,
		Type:    "transactional",
	})
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	if response.Error != "" {
		return fmt.Errorf("failed to send SMS: %s", response.Error)
	}

	return nil
}

type pushService struct {
	provider push.PushProvider
	logger   *logger.Logger
}

func NewPushService(provider push.PushProvider, logger *logger.Logger) PushService {
	return &pushService{
		provider: provider,
		logger:   logger,
	}
}

// SendToTokens logs individual token failures instead of returning them;
// stale device tokens are routine and must not fail the caller.
func (s *pushService) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}
	if s.provider == nil {
		s.logger.Debug("Push provider not configured, dropping notification")
		return nil
	}

	requests := make([]*push.NotificationRequest, 0, len(tokens))
	for _, token := range tokens {
		requests = append(requests, &push.NotificationRequest{
			Token: token,
			Title: title,
			Body:  body,
			Data:  data,
		})
	}

	responses, err := s.provider.SendBulkNotifications(ctx, requests)
	if err != nil {
		return fmt.Errorf("failed to send push notifications: %w", err)
	}
	for _, response := range responses {
		if !response.Success {
			s.logger.WithField("token", response.Token).Warnf("push delivery failed: %s", response.Error)
		}
	}

	return nil
}
