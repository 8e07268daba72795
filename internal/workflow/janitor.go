package workflow

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Janitor periodically sweeps expired workflow sessions so abandoned
// approvals do not linger with live compliance timers.
type Janitor struct {
	scheduler gocron.Scheduler
}

// StartJanitor schedules the expiry sweep. Call Stop on shutdown.
func StartJanitor(manager *Manager, every time.Duration) (*Janitor, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if swept := manager.SweepExpired(time.Now().UTC()); swept > 0 {
				zap.L().Info("Swept expired workflow sessions", zap.Int("count", swept))
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	zap.L().Info("Workflow session janitor started", zap.Duration("interval", every))
	return &Janitor{scheduler: scheduler}, nil
}

// Stop shuts the sweep scheduler down.
func (j *Janitor) Stop() {
	if err := j.scheduler.Shutdown(); err != nil {
		zap.L().Warn("Failed to stop session janitor", zap.Error(err))
	}
}
