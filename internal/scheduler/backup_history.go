package scheduler

import (
	"context"
	"fmt"
	"time"
)

// Backuper uploads database backups and prunes old ones
type Backuper interface {
	CreateAndUploadBackup(ctx context.Context) (string, error)
	RotateOldBackups(ctx context.Context, retentionDays int) (int, error)
}

// BackupHistoryJob uploads a snapshot of the history cache, then rotates
type BackupHistoryJob struct {
	JobBase
	backuper      Backuper
	retentionDays int
	timeout       time.Duration
}

// NewBackupHistoryJob creates a backup job. timeout bounds one run.
func NewBackupHistoryJob(backuper Backuper, retentionDays int, timeout time.Duration) *BackupHistoryJob {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &BackupHistoryJob{
		backuper:      backuper,
		retentionDays: retentionDays,
		timeout:       timeout,
	}
}

// Name returns the job name
func (j *BackupHistoryJob) Name() string {
	return "backup_history"
}

// Run uploads a backup. A failed rotation is logged, not returned.
func (j *BackupHistoryJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	key, err := j.backuper.CreateAndUploadBackup(ctx)
	if err != nil {
		return fmt.Errorf("history backup failed: %w", err)
	}
	j.log.Info().Str("key", key).Msg("History backup uploaded")

	if _, err := j.backuper.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}
