package services

import (
	"context"
	"fmt"
	"time"

	"live-voting/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronResync periodically refreshes all server state, covering pushes that
// were lost while the channel stayed nominally open.
type CronResync struct {
	cron      *cron.Cron
	interval  time.Duration
	refresher Refresher
	log       logger.Logger
}

func NewCronResync(interval time.Duration, refresher Refresher, log logger.Logger) *CronResync {
	return &CronResync{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		interval:  interval,
		refresher: refresher,
		log:       log,
	}
}

// Start schedules the job. A zero interval disables periodic resync.
func (r *CronResync) Start(ctx context.Context) error {
	if r.interval <= 0 {
		r.log.Info("Periodic resync disabled")
		return nil
	}

	r.log.Info("Starting periodic resync", "interval", r.interval)

	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		r.resync(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (r *CronResync) Stop() error {
	r.log.Info("Stopping periodic resync")
	<-r.cron.Stop().Done()
	return nil
}

func (r *CronResync) resync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if err := r.refresher.Refresh(ctx); err != nil {
		r.log.Error("Periodic resync failed", "error", err)
		return
	}
	r.log.Debug("Periodic resync complete")
}
