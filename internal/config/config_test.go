package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv("ANALYTICS_DATA_DIR", dir)
	t.Setenv("WATCHLIST", "")
	t.Setenv("STREAM_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryDBPath())
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "^GSPC", cfg.DefaultBenchmark)
	assert.Equal(t, 0.02, cfg.DefaultRiskFreeRate)
	assert.Equal(t, 0.95, cfg.DefaultConfidenceLevel)
	assert.Equal(t, 365*24*time.Hour, cfg.DefaultLookback)
	assert.Equal(t, 30*time.Second, cfg.OptimizerTimeout)
	assert.Equal(t, 20, cfg.FrontierPoints)
	assert.Equal(t, 0.5, cfg.MinCoverage)
	assert.True(t, cfg.HistoryCacheEnabled)
	assert.Empty(t, cfg.Watchlist)
	assert.Empty(t, cfg.StreamOrigins)
	assert.False(t, cfg.BackupEnabled())
	assert.Equal(t, 30, cfg.BackupRetentionDays)
}

func TestBackupEnabled(t *testing.T) {
	cfg := &Config{
		HistoryCacheEnabled:     true,
		BackupS3Bucket:          "analytics",
		BackupS3AccessKeyID:     "key",
		BackupS3SecretAccessKey: "secret",
	}
	assert.True(t, cfg.BackupEnabled())

	cfg.HistoryCacheEnabled = false
	assert.False(t, cfg.BackupEnabled(), "nothing to back up without the cache")

	cfg.HistoryCacheEnabled = true
	cfg.BackupS3SecretAccessKey = ""
	assert.False(t, cfg.BackupEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ANALYTICS_DATA_DIR", t.TempDir())
	t.Setenv("ANALYTICS_PORT", "9100")
	t.Setenv("DEFAULT_BENCHMARK", "qqq")
	t.Setenv("DEFAULT_CONFIDENCE", "0.99")
	t.Setenv("OPTIMIZER_MAX_ITERATIONS", "2000")
	t.Setenv("WATCHLIST", " aapl, msft,,spy ")
	t.Setenv("STREAM_ORIGINS", "Dashboard.Example.com, *.internal ")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("FETCH_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "QQQ", cfg.DefaultBenchmark)
	assert.Equal(t, 0.99, cfg.DefaultConfidenceLevel)
	assert.Equal(t, 2000, cfg.OptimizerMaxIterations)
	assert.Equal(t, []string{"AAPL", "MSFT", "SPY"}, cfg.Watchlist)
	assert.Equal(t, []string{"dashboard.example.com", "*.internal"}, cfg.StreamOrigins)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 4, cfg.FetchConcurrency, "unparseable values fall back to the default")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"ANALYTICS_PORT", "70000"},
		{"DEFAULT_CONFIDENCE", "1"},
		{"OPTIMIZER_TOLERANCE", "0"},
		{"FRONTIER_POINTS", "0"},
		{"MIN_COVERAGE", "1.5"},
		{"FETCH_CONCURRENCY", "0"},
		{"HISTORY_REFRESH_SCHEDULE", "every morning"},
		{"WAL_CHECK_SCHEDULE", "0 0 6 * *"},
		{"BACKUP_SCHEDULE", "nightly"},
		{"BACKUP_RETENTION_DAYS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("ANALYTICS_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
