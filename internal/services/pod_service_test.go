package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"swiftserve/internal/config"
	"swiftserve/internal/models"
	"swiftserve/internal/services"
	"swiftserve/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var otpCodePattern = regexp.MustCompile(`\b(\d{4})\b`)

type podFixture struct {
	service   services.PODService
	cache     *fakeCache
	deliveries *fakeDeliveryRepo
	sms       *fakeSMS
	push      *fakePush

	delivery *models.Delivery
	order    *models.Order
	customer *models.Customer
	driverID primitive.ObjectID
}

func newPODFixture(t *testing.T) *podFixture {
	t.Helper()

	driverID := primitive.NewObjectID()
	customer := &models.Customer{
		ID:           primitive.NewObjectID(),
		FirstName:    "Ada",
		LastName:     "Okafor",
		Phone:        "+14155550101",
		DeviceTokens: []string{"token-1"},
	}
	order := &models.Order{
		ID:    primitive.NewObjectID(),
		Total: 72.50,
	}
	delivery := &models.Delivery{
		ID:         primitive.NewObjectID(),
		OrderID:    order.ID,
		DriverID:   driverID,
		CustomerID: customer.ID,
		Status:     models.DeliveryStatusArrived,
	}

	cfg := &config.Config{
		Delivery: &config.DeliveryConfig{
			OTPExpiry:      10 * time.Minute,
			OTPMaxAttempts: 3,
		},
	}

	cache := newFakeCache()
	deliveries := newFakeDeliveryRepo(delivery)
	sms := &fakeSMS{}
	push := &fakePush{}

	service := services.NewPODService(
		cfg,
		cache,
		deliveries,
		newFakeOrderRepo(order),
		newFakeCustomerRepo(customer),
		services.NewPODPolicy(50),
		sms,
		push,
		newTestHub(),
		newTestLogger(),
	)

	return &podFixture{
		service:    service,
		cache:      cache,
		deliveries: deliveries,
		sms:        sms,
		push:       push,
		delivery:   delivery,
		order:      order,
		customer:   customer,
		driverID:   driverID,
	}
}

func (f *podFixture) challengeKey() string {
	return utils.CacheDeliveryOTPPrefix + f.delivery.ID.Hex()
}

// sentCode pulls the four digit code out of the text message, the same way
// the customer would read it.
func (f *podFixture) sentCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sms.sent)
	match := otpCodePattern.FindStringSubmatch(f.sms.sent[len(f.sms.sent)-1].message)
	require.Len(t, match, 2)
	return match[1]
}

func TestGenerateDeliveryOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("issues challenge and texts the customer", func(t *testing.T) {
		f := newPODFixture(t)

		resp, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		require.NoError(t, err)

		assert.Equal(t, utils.MaskPhone(f.customer.Phone), resp.MaskedPhone)
		assert.Equal(t, "sms", resp.Method)
		assert.Equal(t, utils.DeliveryOTPLength, resp.Length)
		assert.Equal(t, 600, resp.ExpiresIn)

		require.Len(t, f.sms.sent, 1)
		assert.Equal(t, f.customer.Phone, f.sms.sent[0].phone)
		assert.Contains(t, f.sms.sent[0].message, f.sentCode(t))

		exists, err := f.cache.Exists(ctx, f.challengeKey())
		require.NoError(t, err)
		assert.True(t, exists)

		// Device tokens on file get the code pushed as well.
		require.Len(t, f.push.sent, 1)
		assert.Equal(t, f.customer.DeviceTokens, f.push.sent[0].tokens)
	})

	t.Run("rejects a driver the delivery is not assigned to", func(t *testing.T) {
		f := newPODFixture(t)

		_, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, services.ErrUnauthorized)
		assert.Empty(t, f.sms.sent)
	})

	t.Run("rejects a terminal delivery", func(t *testing.T) {
		f := newPODFixture(t)
		require.NoError(t, f.deliveries.UpdateStatus(ctx, f.delivery.ID, models.DeliveryStatusDelivered))

		_, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		assert.ErrorIs(t, err, services.ErrPrecondition)
	})

	t.Run("requires a customer phone number", func(t *testing.T) {
		f := newPODFixture(t)
		f.customer.Phone = ""
		f.service = rebuiltPODService(f)

		_, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	t.Run("discards the challenge when the text cannot be sent", func(t *testing.T) {
		f := newPODFixture(t)
		f.sms.err = errors.New("carrier unreachable")

		_, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		require.Error(t, err)

		exists, err := f.cache.Exists(ctx, f.challengeKey())
		require.NoError(t, err)
		assert.False(t, exists, "undeliverable challenge must not stay verifiable")
	})

	t.Run("regeneration replaces the outstanding code", func(t *testing.T) {
		f := newPODFixture(t)

		_, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		require.NoError(t, err)
		first := f.sentCode(t)

		// Burn an attempt against the first code, then regenerate.
		wrong := "0000"
		if wrong == first {
			wrong = "1111"
		}
		assert.ErrorIs(t, f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, wrong), services.ErrOTPMismatch)

		_, err = f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		require.NoError(t, err)
		second := f.sentCode(t)

		// The fresh challenge verifies even though the old one had a
		// failed attempt recorded.
		assert.NoError(t, f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, second))
	})
}

// rebuiltPODService reconstructs the service after fixture mutations that
// have to be visible through the repositories.
func rebuiltPODService(f *podFixture) services.PODService {
	cfg := &config.Config{
		Delivery: &config.DeliveryConfig{
			OTPExpiry:      10 * time.Minute,
			OTPMaxAttempts: 3,
		},
	}
	return services.NewPODService(
		cfg,
		f.cache,
		f.deliveries,
		newFakeOrderRepo(f.order),
		newFakeCustomerRepo(f.customer),
		services.NewPODPolicy(50),
		f.sms,
		f.push,
		newTestHub(),
		newTestLogger(),
	)
}

func TestVerifyDeliveryOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("correct code marks the delivery verified and is single use", func(t *testing.T) {
		f := newPODFixture(t)
		_, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		require.NoError(t, err)
		code := f.sentCode(t)

		require.NoError(t, f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, code))

		delivery, err := f.deliveries.GetByID(ctx, f.delivery.ID)
		require.NoError(t, err)
		require.NotNil(t, delivery.Proof)
		assert.True(t, delivery.Proof.OTPVerified)

		// The challenge is consumed; a replay finds nothing.
		err = f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, code)
		assert.ErrorIs(t, err, services.ErrOTPNotFound)
	})

	t.Run("wrong code reports remaining attempts", func(t *testing.T) {
		f := newPODFixture(t)
		_, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		require.NoError(t, err)
		code := f.sentCode(t)

		wrong := "0000"
		if wrong == code {
			wrong = "1111"
		}

		err = f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, wrong)
		assert.ErrorIs(t, err, services.ErrOTPMismatch)
		assert.Contains(t, err.Error(), "2 attempts remaining")

		// The correct code still works after a miss.
		assert.NoError(t, f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, code))
	})

	t.Run("attempt budget exhausts and discards the challenge", func(t *testing.T) {
		f := newPODFixture(t)
		_, err := f.service.GenerateDeliveryOTP(ctx, f.delivery.ID, f.driverID)
		require.NoError(t, err)
		code := f.sentCode(t)

		wrong := "0000"
		if wrong == code {
			wrong = "1111"
		}

		for i := 0; i < 3; i++ {
			err = f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, wrong)
			assert.ErrorIs(t, err, services.ErrOTPMismatch)
		}

		err = f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, wrong)
		assert.ErrorIs(t, err, services.ErrOTPAttemptsExhausted)

		// Even the right code is dead now; the courier must regenerate.
		err = f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, code)
		assert.ErrorIs(t, err, services.ErrOTPNotFound)
	})

	t.Run("expired challenge is rejected and removed", func(t *testing.T) {
		f := newPODFixture(t)

		expired := map[string]interface{}{
			"code":         "4242",
			"attempts":     0,
			"max_attempts": 3,
			"expires_at":   time.Now().Add(-time.Minute),
			"created_at":   time.Now().Add(-11 * time.Minute),
		}
		require.NoError(t, f.cache.Set(ctx, f.challengeKey(), expired, time.Minute))

		err := f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, "4242")
		assert.ErrorIs(t, err, services.ErrOTPNotFound)

		exists, err := f.cache.Exists(ctx, f.challengeKey())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("no outstanding challenge", func(t *testing.T) {
		f := newPODFixture(t)

		err := f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, "1234")
		assert.ErrorIs(t, err, services.ErrOTPNotFound)
	})

	t.Run("rejects a driver the delivery is not assigned to", func(t *testing.T) {
		f := newPODFixture(t)

		err := f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, primitive.NewObjectID(), "1234")
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("concurrent verification holds the per-delivery lock", func(t *testing.T) {
		f := newPODFixture(t)
		f.cache.locks[f.challengeKey()] = true

		err := f.service.VerifyDeliveryOTP(ctx, f.delivery.ID, f.driverID, "1234")
		assert.ErrorIs(t, err, services.ErrPrecondition)
	})
}

func TestGetProofRequirements(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned driver sees the order's checklist", func(t *testing.T) {
		f := newPODFixture(t)

		// Order total 72.50 crosses the high-value threshold.
		requirements, err := f.service.GetProofRequirements(ctx, f.delivery.ID, f.driverID, utils.UserTypeDriver)
		require.NoError(t, err)
		assert.True(t, requirements.OTPRequired)
		assert.False(t, requirements.PhotoRequired)
		assert.True(t, requirements.CustomerConfirmAllowed)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		f := newPODFixture(t)

		_, err := f.service.GetProofRequirements(ctx, f.delivery.ID, primitive.NewObjectID(), utils.UserTypeCustomer)
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("unknown delivery", func(t *testing.T) {
		f := newPODFixture(t)

		_, err := f.service.GetProofRequirements(ctx, primitive.NewObjectID(), f.driverID, utils.UserTypeDriver)
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}
