package services_test

import (
	"context"
	"testing"
	"time"

	"swiftserve/internal/config"
	"swiftserve/internal/models"
	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/internal/validators"
	"swiftserve/pkg/payout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type payoutFixture struct {
	service   services.PayoutService
	tx        *fakeTx
	payouts   *fakePayoutRepo
	drivers   *fakeDriverRepo
	deliveries *fakeDeliveryRepo
	disburser *fakeDisburser

	driver *models.Driver
}

func newPayoutFixture(t *testing.T, opts ...func(*payoutFixture)) *payoutFixture {
	t.Helper()

	driver := &models.Driver{
		ID:        primitive.NewObjectID(),
		FirstName: "Kofi",
		LastName:  "Mensah",
		Balance:   models.DriverBalance{CurrentBalance: 20.00, Currency: "USD"},
		BankAccount: &models.BankAccount{
			AccountName:        "Kofi Mensah",
			BankName:           "First Harbor",
			AccountNumberLast4: "4821",
			IsVerified:         true,
		},
		DeviceTokens: []string{"token-1"},
	}

	f := &payoutFixture{
		tx:         &fakeTx{},
		payouts:    newFakePayoutRepo(),
		drivers:    newFakeDriverRepo(driver),
		deliveries: newFakeDeliveryRepo(),
		driver:     driver,
	}
	for _, opt := range opts {
		opt(f)
	}

	cfg := &config.Config{
		Delivery: &config.DeliveryConfig{
			MinInstantPayoutAmount: 10.00,
			InstantPayoutFee:       0.99,
			MaxPayoutRetries:       3,
		},
		Security: &config.SecurityConfig{
			EncryptionKey: "payout-test-encryption-key",
		},
	}

	// A typed nil would look configured through the interface; only wire
	// the gateway when a test supplied one.
	var disburser payout.DisbursementProvider
	if f.disburser != nil {
		disburser = f.disburser
	}

	f.service = services.NewPayoutService(
		cfg, f.tx, f.payouts, f.drivers, f.deliveries,
		disburser, &fakePush{}, newTestHub(), newTestLogger(),
	)

	return f
}

func withDisburser(d *fakeDisburser) func(*payoutFixture) {
	return func(f *payoutFixture) { f.disburser = d }
}

func TestRequestInstantPayout(t *testing.T) {
	ctx := context.Background()

	t.Run("debits the balance and creates a pending payout", func(t *testing.T) {
		f := newPayoutFixture(t)

		p, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 15.00)
		require.NoError(t, err)

		assert.Equal(t, models.PayoutTypeInstant, p.Type)
		assert.Equal(t, models.PayoutStatusPending, p.Status)
		assert.Equal(t, 15.00, p.GrossAmount)
		assert.Equal(t, 0.99, p.InstantFee)
		assert.Equal(t, 14.01, p.NetAmount)
		assert.Equal(t, "USD", p.Currency)
		assert.NotEmpty(t, p.Reference)
		require.NotNil(t, p.BankAccount)
		assert.Equal(t, "4821", p.BankAccount.AccountNumberLast4)

		assert.Equal(t, 5.00, f.drivers.balance(f.driver.ID))
		assert.Equal(t, 1, f.tx.calls)
	})

	t.Run("below the minimum", func(t *testing.T) {
		f := newPayoutFixture(t)

		_, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 9.99)
		assert.ErrorIs(t, err, services.ErrValidation)
		assert.Equal(t, 20.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("exceeds the balance", func(t *testing.T) {
		f := newPayoutFixture(t)

		_, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 20.01)
		assert.ErrorIs(t, err, services.ErrInsufficientBalance)
		assert.Equal(t, 20.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("needs a verified bank account", func(t *testing.T) {
		f := newPayoutFixture(t)
		f.driver.BankAccount.IsVerified = false

		_, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 15.00)
		assert.ErrorIs(t, err, services.ErrBankAccountMissing)
	})

	t.Run("needs a bank account at all", func(t *testing.T) {
		f := newPayoutFixture(t)
		f.driver.BankAccount = nil

		_, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 15.00)
		assert.ErrorIs(t, err, services.ErrBankAccountMissing)
	})
}

func TestUpdateBankAccount(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t)

	account, err := f.service.UpdateBankAccount(ctx, f.driver.ID, &validators.BankAccountRequest{
		AccountName:   "Kofi Mensah",
		BankName:      "Second Harbor",
		AccountNumber: "000123456789",
		RoutingNumber: "021000021",
	})
	require.NoError(t, err)

	assert.Equal(t, "6789", account.AccountNumberLast4)
	assert.NotEmpty(t, account.AccountNumberEncrypted)
	assert.NotContains(t, account.AccountNumberEncrypted, "000123456789")
	assert.False(t, account.IsVerified, "a replaced account must be re-verified")

	updated, err := f.drivers.GetByID(ctx, f.driver.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second Harbor", updated.BankAccount.BankName)
}

func TestPayoutStateMachine(t *testing.T) {
	ctx := context.Background()

	createPending := func(t *testing.T, f *payoutFixture) *models.Payout {
		t.Helper()
		p, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 15.00)
		require.NoError(t, err)
		return p
	}

	t.Run("process initiates the transfer and moves to processing", func(t *testing.T) {
		d := &fakeDisburser{}
		f := newPayoutFixture(t, withDisburser(d))
		p := createPending(t, f)

		processed, err := f.service.ProcessPayout(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, models.PayoutStatusProcessing, processed.Status)
		assert.Equal(t, "tr_test_1", processed.TransactionID)
		require.Len(t, d.transfers, 1)
		assert.Equal(t, p.Reference, d.transfers[0].Reference)
		assert.Equal(t, 14.01, d.transfers[0].Amount)

		// Processing holds the funds; the balance does not move.
		assert.Equal(t, 5.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("complete is terminal and never touches the balance", func(t *testing.T) {
		f := newPayoutFixture(t)
		p := createPending(t, f)

		completed, err := f.service.CompletePayout(ctx, p.ID, "tr_manual_1", "stripe")
		require.NoError(t, err)

		assert.Equal(t, models.PayoutStatusCompleted, completed.Status)
		assert.Equal(t, "tr_manual_1", completed.TransactionID)
		assert.Equal(t, "stripe", completed.Provider)
		assert.Equal(t, 5.00, f.drivers.balance(f.driver.ID))

		_, err = f.service.CancelPayout(ctx, p.ID, "too late")
		assert.ErrorIs(t, err, services.ErrPrecondition)
	})

	t.Run("fail credits the gross amount back", func(t *testing.T) {
		f := newPayoutFixture(t)
		p := createPending(t, f)

		failed, err := f.service.FailPayout(ctx, p.ID, "bank rejected the transfer")
		require.NoError(t, err)

		assert.Equal(t, models.PayoutStatusFailed, failed.Status)
		assert.Equal(t, "bank rejected the transfer", failed.FailureReason)
		assert.Equal(t, 1, failed.RetryCount)
		assert.Equal(t, 20.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("retry re-debits and returns the payout to pending", func(t *testing.T) {
		f := newPayoutFixture(t)
		p := createPending(t, f)

		_, err := f.service.FailPayout(ctx, p.ID, "bank rejected the transfer")
		require.NoError(t, err)

		retried, err := f.service.RetryPayout(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, models.PayoutStatusPending, retried.Status)
		assert.Empty(t, retried.FailureReason)
		assert.Empty(t, retried.TransactionID)
		assert.Equal(t, 5.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("retry needs the balance to still cover the payout", func(t *testing.T) {
		f := newPayoutFixture(t)
		p := createPending(t, f)

		_, err := f.service.FailPayout(ctx, p.ID, "bank rejected the transfer")
		require.NoError(t, err)

		// Drain the credited-back funds before retrying.
		debited, err := f.drivers.DebitBalanceIfAvailable(ctx, f.driver.ID, 18.00)
		require.NoError(t, err)
		require.True(t, debited)

		_, err = f.service.RetryPayout(ctx, p.ID)
		assert.ErrorIs(t, err, services.ErrInsufficientBalance)
	})

	t.Run("retry budget is finite", func(t *testing.T) {
		f := newPayoutFixture(t)
		p := createPending(t, f)

		for i := 0; i < 3; i++ {
			_, err := f.service.FailPayout(ctx, p.ID, "bank rejected the transfer")
			require.NoError(t, err)
			if i < 2 {
				_, err = f.service.RetryPayout(ctx, p.ID)
				require.NoError(t, err)
			}
		}

		// Three failures recorded; the cap of three retries is spent.
		_, err := f.service.RetryPayout(ctx, p.ID)
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	t.Run("only failed payouts can be retried", func(t *testing.T) {
		f := newPayoutFixture(t)
		p := createPending(t, f)

		_, err := f.service.RetryPayout(ctx, p.ID)
		assert.ErrorIs(t, err, services.ErrPrecondition)
	})

	t.Run("cancelling a pending payout refunds the hold", func(t *testing.T) {
		f := newPayoutFixture(t)
		p := createPending(t, f)

		cancelled, err := f.service.CancelPayout(ctx, p.ID, "requested by driver")
		require.NoError(t, err)

		assert.Equal(t, models.PayoutStatusCancelled, cancelled.Status)
		assert.Equal(t, 20.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("cancelling a failed payout does not refund twice", func(t *testing.T) {
		f := newPayoutFixture(t)
		p := createPending(t, f)

		_, err := f.service.FailPayout(ctx, p.ID, "bank rejected the transfer")
		require.NoError(t, err)
		require.Equal(t, 20.00, f.drivers.balance(f.driver.ID))

		cancelled, err := f.service.CancelPayout(ctx, p.ID, "giving up")
		require.NoError(t, err)

		assert.Equal(t, models.PayoutStatusCancelled, cancelled.Status)
		assert.Equal(t, 20.00, f.drivers.balance(f.driver.ID))
	})
}

func TestAddAdjustment(t *testing.T) {
	ctx := context.Background()
	adminID := primitive.NewObjectID()

	t.Run("positive adjustment grows the payout and the hold", func(t *testing.T) {
		f := newPayoutFixture(t)
		p, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 15.00)
		require.NoError(t, err)

		adjusted, err := f.service.AddAdjustment(ctx, p.ID, "missed tip from order #1042", 2.00, adminID)
		require.NoError(t, err)

		assert.Equal(t, 17.00, adjusted.GrossAmount)
		assert.Equal(t, 16.01, adjusted.NetAmount)
		require.Len(t, adjusted.Adjustments, 1)
		assert.Equal(t, adminID, adjusted.Adjustments[0].AddedBy)

		// The extra hold comes out of the remaining balance.
		assert.Equal(t, 3.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("negative adjustment releases part of the hold", func(t *testing.T) {
		f := newPayoutFixture(t)
		p, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 15.00)
		require.NoError(t, err)

		adjusted, err := f.service.AddAdjustment(ctx, p.ID, "damaged order chargeback", -3.00, adminID)
		require.NoError(t, err)

		assert.Equal(t, 12.00, adjusted.GrossAmount)
		assert.Equal(t, 11.01, adjusted.NetAmount)
		assert.Equal(t, 8.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("cannot push the net amount negative", func(t *testing.T) {
		f := newPayoutFixture(t)
		p, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 15.00)
		require.NoError(t, err)

		_, err = f.service.AddAdjustment(ctx, p.ID, "massive chargeback", -14.50, adminID)
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	t.Run("only pending payouts can be adjusted", func(t *testing.T) {
		f := newPayoutFixture(t)
		p, err := f.service.RequestInstantPayout(ctx, f.driver.ID, 15.00)
		require.NoError(t, err)
		_, err = f.service.ProcessPayout(ctx, p.ID)
		require.NoError(t, err)

		_, err = f.service.AddAdjustment(ctx, p.ID, "late correction", 1.00, adminID)
		assert.ErrorIs(t, err, services.ErrPrecondition)
	})
}

func TestGenerateWeeklyPayouts(t *testing.T) {
	ctx := context.Background()
	periodStart := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	deliveredFor := func(driverID primitive.ObjectID, earnings ...*models.DeliveryEarnings) []*models.Delivery {
		out := make([]*models.Delivery, 0, len(earnings))
		for _, e := range earnings {
			out = append(out, &models.Delivery{
				ID:       primitive.NewObjectID(),
				DriverID: driverID,
				Status:   models.DeliveryStatusDelivered,
				Earnings: e,
			})
		}
		return out
	}

	t.Run("aggregates a driver's week into one pending payout", func(t *testing.T) {
		f := newPayoutFixture(t)
		f.driver.Balance.CurrentBalance = 100.00
		f.deliveries.deliveredByDriver[f.driver.ID] = deliveredFor(f.driver.ID,
			&models.DeliveryEarnings{BaseFee: 4.00, DistanceBonus: 1.50, Tip: 3.00, Total: 8.50},
			&models.DeliveryEarnings{BaseFee: 4.00, PeakHourBonus: 1.50, Tip: 2.00, Total: 7.50},
		)

		run, err := f.service.GenerateWeeklyPayouts(ctx, periodStart, periodEnd)
		require.NoError(t, err)

		assert.Equal(t, 1, run.DriversExamined)
		assert.Equal(t, 1, run.PayoutsCreated)
		assert.Equal(t, 0, run.SkippedExisting)
		assert.Equal(t, 0, run.SkippedNoBank)
		assert.Equal(t, 16.00, run.TotalAmount)

		payouts := f.payouts.byDriver(f.driver.ID)
		require.Len(t, payouts, 1)
		p := payouts[0]
		assert.Equal(t, models.PayoutTypeWeekly, p.Type)
		assert.Equal(t, models.PayoutStatusPending, p.Status)
		assert.Equal(t, 16.00, p.GrossAmount)
		assert.Equal(t, 16.00, p.NetAmount, "weekly payouts carry no fee")
		assert.Equal(t, 8.00, p.Breakdown.BaseFees)
		assert.Equal(t, 5.00, p.Breakdown.Tips)
		assert.Equal(t, 1.50, p.Breakdown.PeakHourBonuses)
		assert.Len(t, p.DeliveryIDs, 2)

		// The settled amount moves out of the withdrawable balance.
		assert.Equal(t, 84.00, f.drivers.balance(f.driver.ID))
	})

	t.Run("second run for the same period is a no-op", func(t *testing.T) {
		f := newPayoutFixture(t)
		f.driver.Balance.CurrentBalance = 100.00
		f.deliveries.deliveredByDriver[f.driver.ID] = deliveredFor(f.driver.ID,
			&models.DeliveryEarnings{BaseFee: 4.00, Total: 4.00},
		)

		_, err := f.service.GenerateWeeklyPayouts(ctx, periodStart, periodEnd)
		require.NoError(t, err)

		run, err := f.service.GenerateWeeklyPayouts(ctx, periodStart, periodEnd)
		require.NoError(t, err)

		assert.Equal(t, 0, run.PayoutsCreated)
		assert.Equal(t, 1, run.SkippedExisting)
		assert.Len(t, f.payouts.byDriver(f.driver.ID), 1)
		assert.Equal(t, 96.00, f.drivers.balance(f.driver.ID), "balance debited exactly once")
	})

	t.Run("drivers without a verified bank account are skipped", func(t *testing.T) {
		f := newPayoutFixture(t)
		f.driver.BankAccount = nil
		f.deliveries.deliveredByDriver[f.driver.ID] = deliveredFor(f.driver.ID,
			&models.DeliveryEarnings{BaseFee: 4.00, Total: 4.00},
		)

		run, err := f.service.GenerateWeeklyPayouts(ctx, periodStart, periodEnd)
		require.NoError(t, err)

		assert.Equal(t, 0, run.PayoutsCreated)
		assert.Equal(t, 1, run.SkippedNoBank)
		assert.Empty(t, f.payouts.byDriver(f.driver.ID))
	})

	t.Run("one broken driver does not abort the batch", func(t *testing.T) {
		f := newPayoutFixture(t)
		f.driver.Balance.CurrentBalance = 100.00
		f.deliveries.deliveredByDriver[f.driver.ID] = deliveredFor(f.driver.ID,
			&models.DeliveryEarnings{BaseFee: 4.00, Total: 4.00},
		)
		// This driver ID has deliveries on record but no driver document.
		ghost := primitive.NewObjectID()
		f.deliveries.deliveredByDriver[ghost] = deliveredFor(ghost,
			&models.DeliveryEarnings{BaseFee: 4.00, Total: 4.00},
		)

		run, err := f.service.GenerateWeeklyPayouts(ctx, periodStart, periodEnd)
		require.NoError(t, err)

		assert.Equal(t, 2, run.DriversExamined)
		assert.Equal(t, 1, run.PayoutsCreated)
		assert.Len(t, f.payouts.byDriver(f.driver.ID), 1)
	})

	t.Run("zero earning weeks create nothing", func(t *testing.T) {
		f := newPayoutFixture(t)
		f.deliveries.deliveredByDriver[f.driver.ID] = deliveredFor(f.driver.ID,
			&models.DeliveryEarnings{Total: 0},
		)

		run, err := f.service.GenerateWeeklyPayouts(ctx, periodStart, periodEnd)
		require.NoError(t, err)

		assert.Equal(t, 0, run.PayoutsCreated)
		assert.Empty(t, f.payouts.byDriver(f.driver.ID))
	})
}

func TestWeeklyPayoutPeriodHelpers(t *testing.T) {
	// The weekly job settles the Monday-to-Monday window that closed
	// before the run.
	wednesday := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	start, end := utils.PreviousWeekWindow(wednesday)

	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), start)
	assert.True(t, end.Before(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC).Add(time.Second)))
}
