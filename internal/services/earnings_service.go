package services

import (
	"context"
	"fmt"
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/utils"
	"swiftserve/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EarningsService reports what a driver has earned. The ledger itself is
// written by the completion workflow and the payout manager; this surface
// only aggregates.
type EarningsService interface {
	GetDriverEarnings(ctx context.Context, driverID primitive.ObjectID, period string) (*EarningsSummary, error)
	GetDailyBreakdown(ctx context.Context, driverID primitive.ObjectID, days int) ([]*models.DailyEarnings, error)
}

type EarningsSummary struct {
	Period      string                `json:"period"`
	PeriodStart time.Time             `json:"period_start"`
	PeriodEnd   time.Time             `json:"period_end"`
	Totals      models.EarningsTotals `json:"totals"`

	// PendingPayout is the amount currently held in pending and
	// processing payouts.
	PendingPayout float64          `json:"pending_payout"`
	LastPayout    *models.Payout   `json:"last_payout,omitempty"`
	Lifetime      LifetimeEarnings `json:"lifetime"`
}

type LifetimeEarnings struct {
	LifetimeEarnings    float64 `json:"lifetime_earnings"`
	CurrentBalance      float64 `json:"current_balance"`
	Currency            string  `json:"currency"`
	TotalDeliveries     int64   `json:"total_deliveries"`
	CompletedDeliveries int64   `json:"completed_deliveries"`
}

type earningsService struct {
	deliveryRepo interfaces.DeliveryRepository
	driverRepo   interfaces.DriverRepository
	payoutRepo   interfaces.PayoutRepository
	logger       *logger.Logger
}

func NewEarningsService(
	deliveryRepo interfaces.DeliveryRepository,
	driverRepo interfaces.DriverRepository,
	payoutRepo interfaces.PayoutRepository,
	logger *logger.Logger,
) EarningsService {
	return &earningsService{
		deliveryRepo: deliveryRepo,
		driverRepo:   driverRepo,
		payoutRepo:   payoutRepo,
		logger:       logger,
	}
}

func (s *earningsService) GetDriverEarnings(ctx context.Context, driverID primitive.ObjectID, period string) (*EarningsSummary, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	start, end, err := utils.PeriodWindow(period, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	totals, err := s.deliveryRepo.AggregateEarnings(ctx, driverID, start, end)
	if err != nil {
		return nil, err
	}

	summary := &EarningsSummary{
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   end,
		Totals:      *totals,
		Lifetime: LifetimeEarnings{
			LifetimeEarnings:    driver.Balance.LifetimeEarnings,
			CurrentBalance:      driver.Balance.CurrentBalance,
			Currency:            driver.Balance.Currency,
			TotalDeliveries:     driver.TotalDeliveries,
			CompletedDeliveries: driver.CompletedDeliveries,
		},
	}

	// Payout context rounds out the picture; neither lookup is worth
	// failing the whole summary over.
	pending, err := s.payoutRepo.PendingSummary(ctx, driverID)
	if err != nil {
		s.logger.WithDriverID(driverID).WithError(err).Warn("Failed to load pending payout summary")
	} else {
		summary.PendingPayout = pending.PendingAmount + pending.ProcessingAmount
	}

	lastPayout, err := s.lastCompletedPayout(ctx, driverID)
	if err != nil {
		s.logger.WithDriverID(driverID).WithError(err).Warn("Failed to load last completed payout")
	} else {
		summary.LastPayout = lastPayout
	}

	return summary, nil
}

func (s *earningsService) GetDailyBreakdown(ctx context.Context, driverID primitive.ObjectID, days int) ([]*models.DailyEarnings, error) {
	if days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	now := time.Now()
	start := utils.StartOfDay(now.AddDate(0, 0, -(days - 1)))
	end := utils.EndOfDay(now)

	return s.deliveryRepo.AggregateEarningsDaily(ctx, driverID, start, end)
}

func (s *earningsService) lastCompletedPayout(ctx context.Context, driverID primitive.ObjectID) (*models.Payout, error) {
	filter := &interfaces.PayoutFilter{
		DriverID: &driverID,
		Status:   models.PayoutStatusCompleted,
	}
	params := &utils.PaginationParams{Page: 1, PageSize: 1, Sort: "completed_at", Order: "desc"}

	payouts, _, err := s.payoutRepo.List(ctx, filter, params)
	if err != nil {
		return nil, err
	}
	if len(payouts) == 0 {
		return nil, nil
	}
	return payouts[0], nil
}
