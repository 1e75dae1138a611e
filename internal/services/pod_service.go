package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swiftserve/internal/config"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/utils"
	"swiftserve/pkg/logger"
	"swiftserve/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PODService resolves how a delivery must be proven and runs the OTP
// challenge lifecycle.
type PODService interface {
	GetProofRequirements(ctx context.Context, deliveryID, requesterID primitive.ObjectID, requesterRole string) (*PODRequirements, error)
	GenerateDeliveryOTP(ctx context.Context, deliveryID, driverID primitive.ObjectID) (*DeliveryOTPResponse, error)
	VerifyDeliveryOTP(ctx context.Context, deliveryID, driverID primitive.ObjectID, code string) error
}

type DeliveryOTPResponse struct {
	MaskedPhone string `json:"masked_phone"`
	ExpiresIn   int    `json:"expires_in"`
	Length      int    `json:"length"`
	Method      string `json:"method"`
}

// otpChallenge is the transient record kept in Redis under
// delivery_otp:<deliveryID>. It disappears on success, expiry, or
// attempt exhaustion.
type otpChallenge struct {
	Code        string    `json:"code"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

const otpVerifyLockTTL = 5 * time.Second

type podService struct {
	cache        CacheService
	deliveryRepo interfaces.DeliveryRepository
	orderRepo    interfaces.OrderRepository
	customerRepo interfaces.CustomerRepository
	policy       *PODPolicy
	smsService   SMSService
	pushService  PushService
	wsHub        *websocket.Hub
	logger       *logger.Logger

	otpExpiry      time.Duration
	otpMaxAttempts int
}

func NewPODService(
	cfg *config.Config,
	cache CacheService,
	deliveryRepo interfaces.DeliveryRepository,
	orderRepo interfaces.OrderRepository,
	customerRepo interfaces.CustomerRepository,
	policy *PODPolicy,
	smsService SMSService,
	pushService PushService,
	wsHub *websocket.Hub,
	logger *logger.Logger,
) PODService {
	return &podService{
		cache:          cache,
		deliveryRepo:   deliveryRepo,
		orderRepo:      orderRepo,
		customerRepo:   customerRepo,
		policy:         policy,
		smsService:     smsService,
		pushService:    pushService,
		wsHub:          wsHub,
		logger:         logger,
		otpExpiry:      cfg.Delivery.OTPExpiry,
		otpMaxAttempts: cfg.Delivery.OTPMaxAttempts,
	}
}

func (s *podService) GetProofRequirements(ctx context.Context, deliveryID, requesterID primitive.ObjectID, requesterRole string) (*PODRequirements, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if err := authorizeDeliveryAccess(delivery, requesterID, requesterRole); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, delivery.OrderID)
	if err != nil {
		return nil, err
	}

	requirements := s.policy.Requirements(order)
	return &requirements, nil
}

// GenerateDeliveryOTP issues a fresh challenge and texts the code to the
// customer. Regenerating replaces any outstanding challenge and resets the
// attempt counter.
func (s *podService) GenerateDeliveryOTP(ctx context.Context, deliveryID, driverID primitive.ObjectID) (*DeliveryOTPResponse, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.DriverID != driverID {
		return nil, fmt.Errorf("delivery %s is not assigned to driver %s: %w", deliveryID.Hex(), driverID.Hex(), ErrUnauthorized)
	}
	if delivery.Status.IsTerminal() {
		return nil, fmt.Errorf("delivery %s is already %s: %w", deliveryID.Hex(), delivery.Status, ErrPrecondition)
	}

	customer, err := s.customerRepo.GetByID(ctx, delivery.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.Phone == "" {
		return nil, fmt.Errorf("customer has no phone number on file: %w", ErrValidation)
	}

	code := utils.GenerateDeliveryOTP()
	now := time.Now()
	challenge := otpChallenge{
		Code:        code,
		Attempts:    0,
		MaxAttempts: s.otpMaxAttempts,
		ExpiresAt:   now.Add(s.otpExpiry),
		CreatedAt:   now,
	}

	if err := s.cache.Set(ctx, otpChallengeKey(deliveryID), challenge, s.otpExpiry); err != nil {
		return nil, fmt.Errorf("failed to store delivery code: %w", err)
	}

	message := fmt.Sprintf("Your %s delivery code is %s. Give it to your courier to confirm you received your order.", utils.AppName, code)
	if err := s.smsService.SendSMS(ctx, customer.Phone, message); err != nil {
		// Without the SMS the customer never sees the code, so drop the
		// challenge rather than leave one nobody can answer.
		if delErr := s.cache.Delete(ctx, otpChallengeKey(deliveryID)); delErr != nil {
			s.logger.WithDeliveryID(deliveryID).WithError(delErr).Warn("Failed to discard undeliverable challenge")
		}
		return nil, fmt.Errorf("failed to deliver code to customer: %w", err)
	}

	if len(customer.DeviceTokens) > 0 {
		if err := s.pushService.SendToTokens(ctx, customer.DeviceTokens, "Delivery code", message, map[string]string{
			"type":        utils.EventDeliveryOTP,
			"delivery_id": deliveryID.Hex(),
		}); err != nil {
			s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to push delivery code")
		}
	}

	s.wsHub.SendDeliveryUpdate(deliveryID, websocket.Message{
		Type: utils.EventDeliveryOTP,
		Data: map[string]interface{}{
			"delivery_id":  deliveryID.Hex(),
			"masked_phone": utils.MaskPhone(customer.Phone),
			"expires_in":   int(s.otpExpiry.Seconds()),
		},
	})

	s.logger.LogDeliveryEvent(deliveryID, "otp_generated", map[string]interface{}{
		"driver_id":    driverID.Hex(),
		"masked_phone": utils.MaskPhone(customer.Phone),
	})

	return &DeliveryOTPResponse{
		MaskedPhone: utils.MaskPhone(customer.Phone),
		ExpiresIn:   int(s.otpExpiry.Seconds()),
		Length:      utils.DeliveryOTPLength,
		Method:      "sms",
	}, nil
}

// VerifyDeliveryOTP checks the submitted code against the outstanding
// challenge. The read-check-increment-write runs under a per-delivery lock
// so two concurrent attempts cannot both consume the same counter slot.
func (s *podService) VerifyDeliveryOTP(ctx context.Context, deliveryID, driverID primitive.ObjectID, code string) error {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return err
	}
	if delivery.DriverID != driverID {
		return fmt.Errorf("delivery %s is not assigned to driver %s: %w", deliveryID.Hex(), driverID.Hex(), ErrUnauthorized)
	}

	lock, err := s.cache.Lock(ctx, otpChallengeKey(deliveryID), otpVerifyLockTTL)
	if err != nil {
		if errors.Is(err, ErrPrecondition) {
			return fmt.Errorf("another verification is in progress for delivery %s: %w", deliveryID.Hex(), ErrPrecondition)
		}
		return fmt.Errorf("code store unreachable: %w", ErrUnavailable)
	}
	defer func() {
		if unlockErr := s.cache.Unlock(ctx, lock); unlockErr != nil {
			s.logger.WithDeliveryID(deliveryID).WithError(unlockErr).Warn("Failed to release verification lock")
		}
	}()

	var challenge otpChallenge
	if err := s.cache.Get(ctx, otpChallengeKey(deliveryID), &challenge); err != nil {
		if IsCacheMiss(err) {
			return fmt.Errorf("no active delivery code for delivery %s: %w", deliveryID.Hex(), ErrOTPNotFound)
		}
		return fmt.Errorf("code store unreachable: %w", ErrUnavailable)
	}

	if time.Now().After(challenge.ExpiresAt) {
		s.discardChallenge(ctx, deliveryID)
		return fmt.Errorf("delivery code expired: %w", ErrOTPNotFound)
	}

	if challenge.Attempts >= challenge.MaxAttempts {
		s.discardChallenge(ctx, deliveryID)
		return fmt.Errorf("too many incorrect attempts: %w", ErrOTPAttemptsExhausted)
	}

	if code != challenge.Code {
		challenge.Attempts++
		remaining := challenge.MaxAttempts - challenge.Attempts
		// Keep the original expiry; a wrong guess must not extend the
		// challenge's life.
		if err := s.cache.Set(ctx, otpChallengeKey(deliveryID), challenge, time.Until(challenge.ExpiresAt)); err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		return fmt.Errorf("incorrect delivery code, %d attempts remaining: %w", remaining, ErrOTPMismatch)
	}

	if err := s.deliveryRepo.MarkOTPVerified(ctx, deliveryID); err != nil {
		return err
	}
	s.discardChallenge(ctx, deliveryID)

	s.logger.LogDeliveryEvent(deliveryID, "otp_verified", map[string]interface{}{
		"driver_id": driverID.Hex(),
	})

	return nil
}

func (s *podService) discardChallenge(ctx context.Context, deliveryID primitive.ObjectID) {
	if err := s.cache.Delete(ctx, otpChallengeKey(deliveryID)); err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to discard delivery code")
	}
}

func otpChallengeKey(deliveryID primitive.ObjectID) string {
	return utils.CacheDeliveryOTPPrefix + deliveryID.Hex()
}
