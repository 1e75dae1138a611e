package services_test

import (
	"context"
	"testing"

	"swiftserve/internal/models"
	"swiftserve/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGetDriverEarnings(t *testing.T) {
	ctx := context.Background()

	driver := &models.Driver{
		ID: primitive.NewObjectID(),
		Balance: models.DriverBalance{
			CurrentBalance:   42.50,
			LifetimeEarnings: 1280.75,
			Currency:         "USD",
		},
		TotalDeliveries:     210,
		CompletedDeliveries: 204,
	}

	deliveries := newFakeDeliveryRepo()
	deliveries.earningsTotals = &models.EarningsTotals{
		BaseFees:      40.00,
		Tips:          22.50,
		Total:         62.50,
		DeliveryCount: 10,
	}

	service := services.NewEarningsService(deliveries, newFakeDriverRepo(driver), newFakePayoutRepo(), newTestLogger())

	t.Run("summary combines period totals with lifetime figures", func(t *testing.T) {
		summary, err := service.GetDriverEarnings(ctx, driver.ID, "week")
		require.NoError(t, err)

		assert.Equal(t, "week", summary.Period)
		assert.True(t, summary.PeriodStart.Before(summary.PeriodEnd))
		assert.Equal(t, 62.50, summary.Totals.Total)
		assert.Equal(t, int64(10), summary.Totals.DeliveryCount)

		assert.Equal(t, 1280.75, summary.Lifetime.LifetimeEarnings)
		assert.Equal(t, 42.50, summary.Lifetime.CurrentBalance)
		assert.Equal(t, int64(204), summary.Lifetime.CompletedDeliveries)
	})

	t.Run("unknown period is a validation error", func(t *testing.T) {
		_, err := service.GetDriverEarnings(ctx, driver.ID, "fortnight")
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := service.GetDriverEarnings(ctx, primitive.NewObjectID(), "week")
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestGetDailyBreakdown(t *testing.T) {
	ctx := context.Background()
	service := services.NewEarningsService(newFakeDeliveryRepo(), newFakeDriverRepo(), newFakePayoutRepo(), newTestLogger())

	// Out-of-range day counts are clamped rather than rejected; the fake
	// returns an empty breakdown either way.
	for _, days := range []int{-1, 0, 7, 90, 500} {
		_, err := service.GetDailyBreakdown(ctx, primitive.NewObjectID(), days)
		assert.NoError(t, err)
	}
}
