package jobs

import (
	"fmt"

	"swiftserve/internal/config"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/services"
	"swiftserve/pkg/logger"
)

// JobManager coordinates the scheduled background jobs.
type JobManager struct {
	weeklyPayoutJob *WeeklyPayoutJob
	activeSweepJob  *ActiveSweepJob
}

func NewJobManager(
	cfg *config.Config,
	payoutService services.PayoutService,
	cache services.CacheService,
	deliveryRepo interfaces.DeliveryRepository,
	log *logger.Logger,
) *JobManager {
	return &JobManager{
		weeklyPayoutJob: NewWeeklyPayoutJob(payoutService, cache, cfg.Delivery.WeeklyPayoutSchedule, log),
		activeSweepJob:  NewActiveSweepJob(cache, deliveryRepo, log),
	}
}

// StartAll starts every job; if one fails the already running jobs are
// stopped again so startup is all-or-nothing.
func (jm *JobManager) StartAll() error {
	if err := jm.weeklyPayoutJob.Start(); err != nil {
		return fmt.Errorf("failed to start weekly payout job: %w", err)
	}

	if err := jm.activeSweepJob.Start(); err != nil {
		jm.weeklyPayoutJob.Stop()
		return fmt.Errorf("failed to start active sweep job: %w", err)
	}

	return nil
}

func (jm *JobManager) StopAll() {
	jm.activeSweepJob.Stop()
	jm.weeklyPayoutJob.Stop()
}
