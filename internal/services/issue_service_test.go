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

func TestReportDeliveryIssue(t *testing.T) {
	ctx := context.Background()

	driverID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()

	newFixture := func() (services.IssueService, *fakeDeliveryRepo, *models.Delivery) {
		delivery := &models.Delivery{
			ID:         primitive.NewObjectID(),
			OrderID:    primitive.NewObjectID(),
			DriverID:   driverID,
			CustomerID: customerID,
			Status:     models.DeliveryStatusInTransit,
		}
		repo := newFakeDeliveryRepo(delivery)
		return services.NewIssueService(repo, newTestHub(), newTestLogger()), repo, delivery
	}

	t.Run("assigned driver reports an issue", func(t *testing.T) {
		service, repo, delivery := newFixture()

		issue, err := service.ReportDeliveryIssue(ctx, delivery.ID, driverID,
			models.IssueReporterDriver, models.IssueTypeCustomerUnavailable,
			"customer not answering the door or phone", nil)
		require.NoError(t, err)

		assert.Equal(t, models.IssueTypeCustomerUnavailable, issue.Type)
		assert.Equal(t, driverID, issue.ReporterID)
		assert.False(t, issue.Urgent)

		stored, err := repo.GetByID(ctx, delivery.ID)
		require.NoError(t, err)
		require.Len(t, stored.Issues, 1)
		assert.Equal(t, issue.ID, stored.Issues[0].ID)

		// Issues never move the delivery lifecycle.
		assert.Equal(t, models.DeliveryStatusInTransit, stored.Status)
	})

	t.Run("damage and accidents are flagged urgent", func(t *testing.T) {
		service, _, delivery := newFixture()

		damaged, err := service.ReportDeliveryIssue(ctx, delivery.ID, customerID,
			models.IssueReporterCustomer, models.IssueTypeOrderDamaged,
			"the bag arrived crushed and leaking", []string{"https://cdn.example.com/issues/bag.jpg"})
		require.NoError(t, err)
		assert.True(t, damaged.Urgent)

		accident, err := service.ReportDeliveryIssue(ctx, delivery.ID, driverID,
			models.IssueReporterDriver, models.IssueTypeAccident,
			"rear-ended at the junction, order intact", nil)
		require.NoError(t, err)
		assert.True(t, accident.Urgent)
	})

	t.Run("driver not on the delivery is rejected", func(t *testing.T) {
		service, _, delivery := newFixture()

		_, err := service.ReportDeliveryIssue(ctx, delivery.ID, primitive.NewObjectID(),
			models.IssueReporterDriver, models.IssueTypeOther, "arbitrary complaint", nil)
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("customer not on the delivery is rejected", func(t *testing.T) {
		service, _, delivery := newFixture()

		_, err := service.ReportDeliveryIssue(ctx, delivery.ID, primitive.NewObjectID(),
			models.IssueReporterCustomer, models.IssueTypeMissingItems, "items missing from order", nil)
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("system reporter bypasses ownership checks", func(t *testing.T) {
		service, _, delivery := newFixture()

		_, err := service.ReportDeliveryIssue(ctx, delivery.ID, primitive.NilObjectID,
			models.IssueReporterSystem, models.IssueTypeRestaurantDelay,
			"pickup exceeded the preparation estimate by 20 minutes", nil)
		assert.NoError(t, err)
	})

	t.Run("unknown reporter type", func(t *testing.T) {
		service, _, delivery := newFixture()

		_, err := service.ReportDeliveryIssue(ctx, delivery.ID, driverID,
			models.IssueReporter("bystander"), models.IssueTypeOther, "saw something odd", nil)
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	t.Run("unknown delivery", func(t *testing.T) {
		service, _, _ := newFixture()

		_, err := service.ReportDeliveryIssue(ctx, primitive.NewObjectID(), driverID,
			models.IssueReporterDriver, models.IssueTypeOther, "ghost delivery", nil)
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestListDeliveryIssues(t *testing.T) {
	ctx := context.Background()

	delivery := &models.Delivery{
		ID:         primitive.NewObjectID(),
		DriverID:   primitive.NewObjectID(),
		CustomerID: primitive.NewObjectID(),
		Status:     models.DeliveryStatusInTransit,
		Issues: []models.DeliveryIssue{
			{ID: primitive.NewObjectID(), Type: models.IssueTypeWrongAddress},
		},
	}
	service := services.NewIssueService(newFakeDeliveryRepo(delivery), newTestHub(), newTestLogger())

	issues, err := service.ListDeliveryIssues(ctx, delivery.ID)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueTypeWrongAddress, issues[0].Type)

	_, err = service.ListDeliveryIssues(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, services.ErrNotFound)
}
