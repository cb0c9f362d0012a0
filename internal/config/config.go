// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the history cache (always absolute)
	Port     int
	LogLevel string
	// LogPretty switches to console output
	LogPretty bool
	DevMode   bool

	DefaultBenchmark       string
	DefaultRiskFreeRate    float64
	DefaultConfidenceLevel float64
	DefaultLookback        time.Duration

	OptimizerMaxIterations int // 0 scales the cap with the asset count
	OptimizerTolerance     float64
	OptimizerTimeout       time.Duration
	FrontierPoints         int
	MinCoverage            float64

	FetchConcurrency      int
	ProviderRatePerSecond float64

	HistoryCacheEnabled    bool
	HistoryMaxAge          time.Duration
	HistoryRefreshSchedule string
	WALCheckSchedule       string
	Watchlist              []string

	// StreamOrigins are host patterns allowed to open the portfolio
	// websocket from another origin
	StreamOrigins []string

	// S3-compatible backup of the history cache, off unless bucket and
	// credentials are set
	BackupS3Endpoint        string
	BackupS3Region          string
	BackupS3Bucket          string
	BackupS3AccessKeyID     string
	BackupS3SecretAccessKey string
	BackupSchedule          string
	BackupRetentionDays     int
}

// Load reads configuration from environment variables, after loading a
// .env file when present
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("ANALYTICS_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		DataDir:   dataDir,
		Port:      getEnvAsInt("ANALYTICS_PORT", 8001),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
		DevMode:   getEnvAsBool("DEV_MODE", false),

		DefaultBenchmark:       strings.ToUpper(getEnv("DEFAULT_BENCHMARK", "^GSPC")),
		DefaultRiskFreeRate:    getEnvAsFloat("DEFAULT_RISK_FREE_RATE", 0.02),
		DefaultConfidenceLevel: getEnvAsFloat("DEFAULT_CONFIDENCE", 0.95),
		DefaultLookback:        time.Duration(getEnvAsInt("DEFAULT_LOOKBACK_DAYS", 365)) * 24 * time.Hour,

		OptimizerMaxIterations: getEnvAsInt("OPTIMIZER_MAX_ITERATIONS", 0),
		OptimizerTolerance:     getEnvAsFloat("OPTIMIZER_TOLERANCE", 1e-6),
		OptimizerTimeout:       time.Duration(getEnvAsInt("OPTIMIZER_TIMEOUT_SECONDS", 30)) * time.Second,
		FrontierPoints:         getEnvAsInt("FRONTIER_POINTS", 20),
		MinCoverage:            getEnvAsFloat("MIN_COVERAGE", 0.5),

		FetchConcurrency:      getEnvAsInt("FETCH_CONCURRENCY", 4),
		ProviderRatePerSecond: getEnvAsFloat("PROVIDER_RATE_PER_SECOND", 2),

		HistoryCacheEnabled:    getEnvAsBool("HISTORY_CACHE_ENABLED", true),
		HistoryMaxAge:          time.Duration(getEnvAsInt("HISTORY_MAX_AGE_HOURS", 12)) * time.Hour,
		HistoryRefreshSchedule: getEnv("HISTORY_REFRESH_SCHEDULE", "0 0 6 * * *"),
		WALCheckSchedule:       getEnv("WAL_CHECK_SCHEDULE", "0 0 * * * *"),
		Watchlist:              getEnvAsList("WATCHLIST"),

		StreamOrigins: getEnvAsHosts("STREAM_ORIGINS"),

		BackupS3Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		BackupS3Region:          getEnv("BACKUP_S3_REGION", "auto"),
		BackupS3Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
		BackupS3AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		BackupS3SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		BackupSchedule:          getEnv("BACKUP_SCHEDULE", "0 30 3 * * *"),
		BackupRetentionDays:     getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.HistoryCacheEnabled {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// HistoryDBPath is the location of the history cache database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// BackupEnabled reports whether history cache backups are configured
func (c *Config) BackupEnabled() bool {
	return c.HistoryCacheEnabled &&
		c.BackupS3Bucket != "" &&
		c.BackupS3AccessKeyID != "" &&
		c.BackupS3SecretAccessKey != ""
}

// Validate checks the configured ranges
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("ANALYTICS_PORT %d out of range", c.Port)
	}
	if !(c.DefaultConfidenceLevel > 0 && c.DefaultConfidenceLevel < 1) {
		return fmt.Errorf("DEFAULT_CONFIDENCE %v must be in (0,1)", c.DefaultConfidenceLevel)
	}
	if c.DefaultBenchmark == "" {
		return fmt.Errorf("DEFAULT_BENCHMARK must not be empty")
	}
	if c.DefaultLookback <= 0 {
		return fmt.Errorf("DEFAULT_LOOKBACK_DAYS must be positive")
	}
	if c.OptimizerMaxIterations < 0 {
		return fmt.Errorf("OPTIMIZER_MAX_ITERATIONS must not be negative")
	}
	if !(c.OptimizerTolerance > 0) {
		return fmt.Errorf("OPTIMIZER_TOLERANCE %v must be positive", c.OptimizerTolerance)
	}
	if c.OptimizerTimeout <= 0 {
		return fmt.Errorf("OPTIMIZER_TIMEOUT_SECONDS must be positive")
	}
	if c.FrontierPoints < 1 {
		return fmt.Errorf("FRONTIER_POINTS %d must be at least 1", c.FrontierPoints)
	}
	if c.MinCoverage < 0 || c.MinCoverage > 1 {
		return fmt.Errorf("MIN_COVERAGE %v must be in [0,1]", c.MinCoverage)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY %d must be at least 1", c.FetchConcurrency)
	}
	if !(c.ProviderRatePerSecond > 0) {
		return fmt.Errorf("PROVIDER_RATE_PER_SECOND %v must be positive", c.ProviderRatePerSecond)
	}
	if c.BackupRetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for key, spec := range map[string]string{
		"HISTORY_REFRESH_SCHEDULE": c.HistoryRefreshSchedule,
		"WAL_CHECK_SCHEDULE":       c.WALCheckSchedule,
		"BACKUP_SCHEDULE":          c.BackupSchedule,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s %q is not a valid cron schedule: %w", key, spec, err)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsHosts splits a comma-separated list of host patterns, lower-casing each entry
func getEnvAsHosts(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if s := strings.ToLower(strings.TrimSpace(part)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// getEnvAsList splits a comma-separated value, upper-casing each entry
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if s := strings.ToUpper(strings.TrimSpace(part)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
