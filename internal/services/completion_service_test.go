package services_test

import (
	"context"
	"testing"
	"time"

	"swiftserve/internal/config"
	"swiftserve/internal/models"
	"swiftserve/internal/services"
	"swiftserve/internal/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type completionFixture struct {
	service    services.CompletionService
	tx         *fakeTx
	deliveries *fakeDeliveryRepo
	drivers    *fakeDriverRepo
	orders     *fakeOrderRepo
	tracking   *fakeTracking
	push       *fakePush

	delivery *models.Delivery
	order    *models.Order
	driver   *models.Driver
	customer *models.Customer
}

// newCompletionFixture wires a completion service around an in-transit
// delivery for a plain order: no OTP, photo or signature required.
func newCompletionFixture(t *testing.T) *completionFixture {
	t.Helper()

	driver := &models.Driver{
		ID:        primitive.NewObjectID(),
		FirstName: "Kofi",
		LastName:  "Mensah",
		Balance:   models.DriverBalance{Currency: "USD"},
	}
	customer := &models.Customer{
		ID:        primitive.NewObjectID(),
		FirstName: "Ada",
		LastName:  "Okafor",
		Phone:     "+14155550101",
	}
	order := &models.Order{
		ID:             primitive.NewObjectID(),
		CustomerID:     customer.ID,
		RestaurantName: "Blue Plate",
		Total:          24.75,
		Tip:            3.25,
	}
	delivery := &models.Delivery{
		ID:         primitive.NewObjectID(),
		OrderID:    order.ID,
		DriverID:   driver.ID,
		CustomerID: customer.ID,
		Status:     models.DeliveryStatusInTransit,
		Earnings: &models.DeliveryEarnings{
			BaseFee:       4.00,
			DistanceBonus: 1.50,
			Currency:      "USD",
		},
	}

	cfg := &config.Config{
		Delivery: &config.DeliveryConfig{
			OTPExpiry:          10 * time.Minute,
			OTPMaxAttempts:     3,
			MaxProofFileSizeMB: 10,
			PeakHourBonus:      1.50,
			// No windows: the bonus never fires unless a test opts in.
			PeakHourWindows: nil,
		},
	}

	tx := &fakeTx{}
	deliveries := newFakeDeliveryRepo(delivery)
	drivers := newFakeDriverRepo(driver)
	orders := newFakeOrderRepo(order)
	customers := newFakeCustomerRepo(customer)
	tracking := &fakeTracking{}
	push := &fakePush{}
	cache := newFakeCache()
	policy := services.NewPODPolicy(50)

	podService := services.NewPODService(
		cfg, cache, deliveries, orders, customers, policy,
		&fakeSMS{}, push, newTestHub(), newTestLogger(),
	)

	service := services.NewCompletionService(
		cfg, tx, deliveries, orders, drivers, customers,
		policy, podService, tracking, nil, push, newTestHub(), newTestLogger(),
	)

	return &completionFixture{
		service:    service,
		tx:         tx,
		deliveries: deliveries,
		drivers:    drivers,
		orders:     orders,
		tracking:   tracking,
		push:       push,
		delivery:   delivery,
		order:      order,
		driver:     driver,
		customer:   customer,
	}
}

func TestCompleteDeliveryWithProof(t *testing.T) {
	ctx := context.Background()

	t.Run("settles a plain delivery with GPS proof", func(t *testing.T) {
		f := newCompletionFixture(t)

		request := &validators.CompleteDeliveryRequest{
			GPSCoordinates: []float64{37.7749, -122.4194},
			DeliveryNotes:  "Handed to recipient at the lobby",
		}

		delivery, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID, request)
		require.NoError(t, err)

		assert.Equal(t, models.DeliveryStatusDelivered, delivery.Status)
		require.NotNil(t, delivery.Proof)
		assert.Equal(t, models.ProofTypeGPS, delivery.Proof.Type)
		assert.Equal(t, request.GPSCoordinates, delivery.Proof.GPSCoordinates)
		assert.False(t, delivery.Proof.CompletedAt.IsZero())
		require.NotNil(t, delivery.ActualDeliveryTime)

		// Earnings settle with the order tip and a recomputed total.
		require.NotNil(t, delivery.Earnings)
		assert.Equal(t, 3.25, delivery.Earnings.Tip)
		assert.Equal(t, 8.75, delivery.Earnings.Total) // 4.00 + 1.50 + 3.25

		// The total lands on the driver balance in the same transaction.
		assert.Equal(t, 1, f.tx.calls)
		assert.Equal(t, 8.75, f.drivers.balance(f.driver.ID))

		// Cascades: order marked delivered, driver released, live state gone.
		updatedOrder, err := f.orders.GetByID(ctx, f.order.ID)
		require.NoError(t, err)
		assert.NotNil(t, updatedOrder.DeliveredAt)

		updatedDriver, err := f.drivers.GetByID(ctx, f.driver.ID)
		require.NoError(t, err)
		assert.Nil(t, updatedDriver.CurrentDeliveryID)
		assert.True(t, updatedDriver.IsAvailable)
		assert.Equal(t, int64(1), updatedDriver.CompletedDeliveries)

		assert.Contains(t, f.tracking.cleared, f.delivery.ID)
	})

	t.Run("completes from arrived as well", func(t *testing.T) {
		f := newCompletionFixture(t)
		require.NoError(t, f.deliveries.UpdateStatus(ctx, f.delivery.ID, models.DeliveryStatusArrived))

		_, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}})
		assert.NoError(t, err)
	})

	t.Run("rejects completion before the courier is en route to the customer", func(t *testing.T) {
		f := newCompletionFixture(t)
		require.NoError(t, f.deliveries.UpdateStatus(ctx, f.delivery.ID, models.DeliveryStatusPickedUp))

		_, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}})
		assert.ErrorIs(t, err, services.ErrPrecondition)
		assert.Equal(t, 0.0, f.drivers.balance(f.driver.ID))
	})

	t.Run("repeat completion fails", func(t *testing.T) {
		f := newCompletionFixture(t)
		request := &validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}}

		_, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID, request)
		require.NoError(t, err)

		_, err = f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID, request)
		assert.ErrorIs(t, err, services.ErrPrecondition)

		// The double call must not double-credit.
		assert.Equal(t, 8.75, f.drivers.balance(f.driver.ID))
	})

	t.Run("rejects a driver the delivery is not assigned to", func(t *testing.T) {
		f := newCompletionFixture(t)

		_, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, primitive.NewObjectID(),
			&validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}})
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("high value order demands a verified OTP", func(t *testing.T) {
		f := newCompletionFixture(t)
		f.order.Total = 95.00
		require.NoError(t, f.orders.Create(ctx, f.order))

		_, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}})
		assert.ErrorIs(t, err, services.ErrValidation)

		// A previously verified OTP staged on the delivery satisfies it.
		require.NoError(t, f.deliveries.MarkOTPVerified(ctx, f.delivery.ID))

		delivery, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}})
		require.NoError(t, err)
		assert.Equal(t, models.ProofTypeOTP, delivery.Proof.Type)
		assert.True(t, delivery.Proof.OTPVerified)
	})

	t.Run("contactless order demands a photo", func(t *testing.T) {
		f := newCompletionFixture(t)
		f.order.DeliveryInstructions = "leave at the door"
		require.NoError(t, f.orders.Create(ctx, f.order))

		_, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}})
		assert.ErrorIs(t, err, services.ErrValidation)

		delivery, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{PhotoURL: "https://cdn.example.com/proofs/drop.jpg"})
		require.NoError(t, err)
		assert.Equal(t, models.ProofTypePhoto, delivery.Proof.Type)
	})

	t.Run("age restricted order demands a signature", func(t *testing.T) {
		f := newCompletionFixture(t)
		f.order.AgeRestricted = true
		require.NoError(t, f.orders.Create(ctx, f.order))

		_, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}})
		assert.ErrorIs(t, err, services.ErrValidation)

		delivery, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{
				SignatureURL:  "https://cdn.example.com/proofs/sig.png",
				RecipientName: "Ada Okafor",
			})
		require.NoError(t, err)
		assert.Equal(t, models.ProofTypeSignature, delivery.Proof.Type)
		assert.Equal(t, "Ada Okafor", delivery.Proof.RecipientName)
	})

	t.Run("staged proof fields merge with the request", func(t *testing.T) {
		f := newCompletionFixture(t)
		require.NoError(t, f.deliveries.SetProofFields(ctx, f.delivery.ID, map[string]interface{}{
			"photo_url": "https://cdn.example.com/proofs/staged.jpg",
		}))

		delivery, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{DeliveryNotes: "left with doorman", GPSCoordinates: []float64{37.77, -122.41}})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/proofs/staged.jpg", delivery.Proof.PhotoURL)
		assert.Equal(t, "left with doorman", delivery.Proof.DeliveryNotes)
	})

	t.Run("peak hour bonus applies inside a window", func(t *testing.T) {
		f := newCompletionFixture(t)
		cfg := &config.Config{
			Delivery: &config.DeliveryConfig{
				OTPExpiry:          10 * time.Minute,
				OTPMaxAttempts:     3,
				MaxProofFileSizeMB: 10,
				PeakHourBonus:      1.50,
				PeakHourWindows:    []string{"00:00-23:59"},
			},
		}
		f.service = services.NewCompletionService(
			cfg, f.tx, f.deliveries, f.orders, f.drivers, newFakeCustomerRepo(f.customer),
			services.NewPODPolicy(50), nil, f.tracking, nil, f.push, newTestHub(), newTestLogger(),
		)

		delivery, err := f.service.CompleteDeliveryWithProof(ctx, f.delivery.ID, f.driver.ID,
			&validators.CompleteDeliveryRequest{GPSCoordinates: []float64{37.77, -122.41}})
		require.NoError(t, err)
		assert.Equal(t, 1.50, delivery.Earnings.PeakHourBonus)
		assert.Equal(t, 10.25, delivery.Earnings.Total) // 4.00 + 1.50 + 1.50 + 3.25
	})
}

func TestCustomerConfirmDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("customer confirms receipt from any live status", func(t *testing.T) {
		f := newCompletionFixture(t)
		require.NoError(t, f.deliveries.UpdateStatus(ctx, f.delivery.ID, models.DeliveryStatusPickedUp))

		delivery, err := f.service.CustomerConfirmDelivery(ctx, f.delivery.ID, f.customer.ID, "got it, thanks")
		require.NoError(t, err)

		assert.Equal(t, models.DeliveryStatusDelivered, delivery.Status)
		assert.Equal(t, models.ProofTypeCustomerConfirm, delivery.Proof.Type)
		assert.Equal(t, "got it, thanks", delivery.Proof.DeliveryNotes)

		// The driver is still paid.
		assert.Equal(t, 8.75, f.drivers.balance(f.driver.ID))
	})

	t.Run("rejects a customer who does not own the delivery", func(t *testing.T) {
		f := newCompletionFixture(t)

		_, err := f.service.CustomerConfirmDelivery(ctx, f.delivery.ID, primitive.NewObjectID(), "")
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("rejects a terminal delivery", func(t *testing.T) {
		f := newCompletionFixture(t)
		require.NoError(t, f.deliveries.UpdateStatus(ctx, f.delivery.ID, models.DeliveryStatusCancelled))

		_, err := f.service.CustomerConfirmDelivery(ctx, f.delivery.ID, f.customer.ID, "")
		assert.ErrorIs(t, err, services.ErrPrecondition)
	})
}
