package jobs

import (
	"context"
	"time"

	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/pkg/logger"

	"github.com/robfig/cron/v3"
)

// weeklyPayoutLockKey guards the settlement run against concurrent
// instances. The TTL outlives any reasonable run so a crashed holder
// cannot block next week's run.
const (
	weeklyPayoutLockKey = utils.CacheLockPrefix + "weekly_payout_run"
	weeklyPayoutLockTTL = 30 * time.Minute
)

// WeeklyPayoutJob settles the previous Monday-to-Sunday window for every
// driver with delivered earnings. The generation itself is idempotent, so
// the Redis lock only avoids wasted duplicate work, not double payouts.
type WeeklyPayoutJob struct {
	payoutService services.PayoutService
	cache         services.CacheService
	schedule      string
	cron          *cron.Cron
	logger        *logger.Logger
}

func NewWeeklyPayoutJob(payoutService services.PayoutService, cache services.CacheService, schedule string, log *logger.Logger) *WeeklyPayoutJob {
	return &WeeklyPayoutJob{
		payoutService: payoutService,
		cache:         cache,
		schedule:      schedule,
		cron:          cron.New(),
		logger:        log.WithField("component", "weekly_payout_job"),
	}
}

func (j *WeeklyPayoutJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, j.run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("Weekly payout job started")
	return nil
}

func (j *WeeklyPayoutJob) Stop() {
	j.cron.Stop()
	j.logger.Info("Weekly payout job stopped")
}

func (j *WeeklyPayoutJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	lock, err := j.cache.Lock(ctx, weeklyPayoutLockKey, weeklyPayoutLockTTL)
	if err != nil {
		// Another instance holds the lock or Redis is unreachable.
		j.logger.WithError(err).Info("Skipping weekly payout run")
		return
	}
	defer func() {
		if err := j.cache.Unlock(context.Background(), lock); err != nil {
			j.logger.WithError(err).Warn("Failed to release weekly payout lock")
		}
	}()

	periodStart, periodEnd := utils.PreviousWeekWindow(time.Now())

	run, err := j.payoutService.GenerateWeeklyPayouts(ctx, periodStart, periodEnd)
	if err != nil {
		j.logger.WithError(err).Error("Weekly payout run failed")
		return
	}

	j.logger.WithFields(map[string]interface{}{
		"period_start": run.PeriodStart.Format("2006-01-02"),
		"period_end":   run.PeriodEnd.Format("2006-01-02"),
		"created":      run.PayoutsCreated,
		"total":        run.TotalAmount,
	}).Info("Weekly payout run completed")
}
