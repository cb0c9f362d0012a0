package scheduler

import (
	"github.com/aristath/analytics/internal/database"
)

// walFramesThreshold is the WAL size, in frames, above which the job
// truncates the log instead of only reporting it
const walFramesThreshold = 1000

// CheckWALCheckpointsJob reports WAL checkpoint status and truncates large logs
type CheckWALCheckpointsJob struct {
	JobBase
	databases []*database.DB
}

// NewCheckWALCheckpointsJob creates a WAL check over the given databases.
// nil entries are skipped.
func NewCheckWALCheckpointsJob(databases ...*database.DB) *CheckWALCheckpointsJob {
	return &CheckWALCheckpointsJob{databases: databases}
}

// Name returns the job name
func (j *CheckWALCheckpointsJob) Name() string {
	return "check_wal_checkpoints"
}

// Run executes the check WAL checkpoints job
func (j *CheckWALCheckpointsJob) Run() error {
	checked, truncated := 0, 0
	for _, db := range j.databases {
		if db == nil {
			continue
		}

		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, frames, checkpointed int
		err := db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
		if err != nil {
			j.log.Warn().
				Err(err).
				Str("database", db.Name()).
				Msg("Failed to check WAL checkpoint")
			continue
		}
		checked++

		if frames <= walFramesThreshold {
			j.log.Debug().
				Str("database", db.Name()).
				Int("wal_frames", frames).
				Msg("WAL checkpoint status OK")
			continue
		}

		j.log.Warn().
			Str("database", db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, truncating")
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL truncation failed")
			continue
		}
		truncated++
	}

	j.log.Info().
		Int("checked", checked).
		Int("truncated", truncated).
		Msg("WAL checkpoint check completed")

	return nil
}
