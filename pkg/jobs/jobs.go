package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/go-co-op/gocron/v2"
)

// Sweeper is the part of the timeout sweeper the scheduler drives.
type Sweeper interface {
	Sweep(ctx context.Context) (confirmation.SweepReport, error)
}

// SweepJob registers a sweep every interval. A tick that overruns the interval delays the
// next one instead of running alongside it.
func SweepJob(ctx context.Context, scheduler gocron.Scheduler, sweeper Sweeper, interval time.Duration, logger *slog.Logger) (gocron.Job, error) {
	job, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() error {
			report, err := sweeper.Sweep(ctx)
			if err != nil {
				logger.Error("Sweep failed", "error", err)
				return err
			}
			if report.Errors > 0 {
				logger.Warn("Sweep finished with errors", "errors", report.Errors)
			}
			return nil
		}),
		gocron.WithName("timeout-sweeper"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)

	return job, err
}
