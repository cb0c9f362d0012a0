package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/config"
	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/historical"
	"github.com/aristath/analytics/internal/scheduler"
)

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	RefreshHistory      *scheduler.RefreshHistoryJob
	CheckWALCheckpoints *scheduler.CheckWALCheckpointsJob
	BackupHistory       *scheduler.BackupHistoryJob
}

// RegisterJobs registers the background jobs on the container scheduler.
// Without a history cache there is nothing to maintain.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{}
	if container.HistoryDB == nil {
		return jobs, nil
	}

	jobs.CheckWALCheckpoints = scheduler.NewCheckWALCheckpointsJob(container.HistoryDB)
	if err := container.Scheduler.AddJob(cfg.WALCheckSchedule, jobs.CheckWALCheckpoints); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", jobs.CheckWALCheckpoints.Name(), err)
	}

	if container.BackupService != nil {
		jobs.BackupHistory = scheduler.NewBackupHistoryJob(container.BackupService, cfg.BackupRetentionDays, 0)
		if err := container.Scheduler.AddJob(cfg.BackupSchedule, jobs.BackupHistory); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", jobs.BackupHistory.Name(), err)
		}
	}

	if len(cfg.Watchlist) == 0 {
		log.Info().Msg("WATCHLIST is empty, history refresh job not registered")
		return jobs, nil
	}

	jobs.RefreshHistory = scheduler.NewRefreshHistoryJob(
		container.HistoryService,
		cfg.Watchlist,
		domain.Interval1d,
		historical.DefaultLookback,
		cfg.OptimizerTimeout*20,
	)
	if err := container.Scheduler.AddJob(cfg.HistoryRefreshSchedule, jobs.RefreshHistory); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", jobs.RefreshHistory.Name(), err)
	}

	return jobs, nil
}
