package app

import (
	"context"

	"github.com/mx-space/fieldkit/internal/config"
	"github.com/mx-space/fieldkit/internal/modules/schema/editor"
	"github.com/mx-space/fieldkit/internal/pkg/cron"
	"go.uber.org/zap"
)

const sweepJobName = "builder_session_sweep"

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *cron.Scheduler, cfg *config.AppConfig, editorSvc *editor.Service, logger *zap.Logger) error {
	return sched.Register(cron.Job{
		Name:        sweepJobName,
		Description: "Close builder sessions idle longer than " + cfg.Builder.SessionIdleTimeout.String(),
		Interval:    cfg.Builder.CleanupInterval,
		Fn: func(ctx context.Context) error {
			if n := editorSvc.Sweep(ctx); n > 0 {
				logger.Info("closed idle builder sessions", zap.Int("count", n))
			}
			return nil
		},
	})
}
