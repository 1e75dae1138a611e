package jobs

import (
	"context"
	"errors"
	"time"

	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/services"
	"swiftserve/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ActiveSweepJob prunes the active-deliveries set. Members normally leave
// the set when a delivery completes; this catches deliveries whose final
// cleanup was lost, so the live count and tracking reads stay honest.
type ActiveSweepJob struct {
	cache        services.CacheService
	deliveryRepo interfaces.DeliveryRepository
	cron         *cron.Cron
	logger       *logger.Logger
}

func NewActiveSweepJob(cache services.CacheService, deliveryRepo interfaces.DeliveryRepository, log *logger.Logger) *ActiveSweepJob {
	return &ActiveSweepJob{
		cache:        cache,
		deliveryRepo: deliveryRepo,
		cron:         cron.New(),
		logger:       log.WithField("component", "active_sweep_job"),
	}
}

func (j *ActiveSweepJob) Start() error {
	_, err := j.cron.AddFunc("0 * * * *", j.run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Active deliveries sweep job started (hourly)")
	return nil
}

func (j *ActiveSweepJob) Stop() {
	j.cron.Stop()
	j.logger.Info("Active deliveries sweep job stopped")
}

func (j *ActiveSweepJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deliveryIDs, err := j.cache.ActiveDeliveryIDs(ctx)
	if err != nil {
		j.logger.WithError(err).Warn("Failed to list active deliveries")
		return
	}

	removed := 0
	for _, deliveryID := range deliveryIDs {
		delivery, err := j.deliveryRepo.GetByID(ctx, deliveryID)
		switch {
		case errors.Is(err, services.ErrNotFound):
			// Record is gone; the set member is pure garbage.
		case err != nil:
			j.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to check delivery during sweep")
			continue
		case !delivery.Status.IsTerminal():
			continue
		}

		if err := j.cache.RemoveActiveDeliverySet(ctx, deliveryID); err != nil {
			j.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to prune delivery from active set")
			continue
		}
		if err := j.cache.ClearDeliveryTracking(ctx, deliveryID); err != nil {
			j.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to clear stale tracking snapshot")
		}
		removed++
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Pruned stale active deliveries")
	}
}
