package scheduler

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/analytics/internal/database"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	assert.Equal(t, "check_wal_checkpoints", NewCheckWALCheckpointsJob().Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabases(t *testing.T) {
	job := NewCheckWALCheckpointsJob(nil, nil)
	job.SetLogger(zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}

func TestCheckWALCheckpointsJob_Run(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Profile: database.ProfileCache,
		Name:    "history",
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	job := NewCheckWALCheckpointsJob(db, nil)
	job.SetLogger(zerolog.Nop())
	assert.NoError(t, job.Run())
}
