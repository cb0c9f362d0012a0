package di

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/clients/yahoo"
	"github.com/aristath/analytics/internal/config"
	"github.com/aristath/analytics/internal/modules/historical"
	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/performance"
	"github.com/aristath/analytics/internal/modules/portfolio"
	"github.com/aristath/analytics/internal/reliability"
	"github.com/aristath/analytics/internal/scheduler"
)

// InitializeServices builds the provider stack and the engines
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.YahooClient = yahoo.NewClient(cfg.ProviderRatePerSecond, log)
	container.PriceProvider = container.YahooClient

	if container.HistoryDB != nil {
		container.HistoryStore = historical.NewHistoryDB(container.HistoryDB.Conn(), log)
		container.HistoryCache = historical.NewCachingProvider(container.YahooClient, container.HistoryStore, cfg.HistoryMaxAge, log)
		container.HistoryService = historical.NewService(container.HistoryCache, container.HistoryStore, cfg.FetchConcurrency, log)
		container.PriceProvider = container.HistoryCache
	}

	container.Optimizer = optimization.NewOptimizer(optimization.Settings{
		MaxIterations: cfg.OptimizerMaxIterations,
		Tolerance:     cfg.OptimizerTolerance,
		Timeout:       cfg.OptimizerTimeout,
	}, log)

	container.PerformanceService = performance.NewService(container.PriceProvider, log)
	container.PortfolioBuilder = portfolio.NewBuilder(container.PriceProvider, container.Optimizer, portfolio.BuilderConfig{
		Concurrency: cfg.FetchConcurrency,
		MinCoverage: cfg.MinCoverage,
	}, log)

	if cfg.BackupEnabled() && container.HistoryDB != nil {
		initializeBackups(container, cfg, log)
	}

	container.Scheduler = scheduler.New(log)
}

// initializeBackups sets up S3 backups of the history cache. A client that
// cannot be created disables backups rather than failing startup.
func initializeBackups(container *Container, cfg *config.Config, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := reliability.NewS3Client(ctx, reliability.S3Config{
		Endpoint:        cfg.BackupS3Endpoint,
		Region:          cfg.BackupS3Region,
		Bucket:          cfg.BackupS3Bucket,
		AccessKeyID:     cfg.BackupS3AccessKeyID,
		SecretAccessKey: cfg.BackupS3SecretAccessKey,
	}, log)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize S3 client - history backup disabled")
		return
	}

	container.BackupStore = store
	container.BackupService = reliability.NewBackupService(store, cfg.DataDir, log, container.HistoryDB)
	log.Info().Str("bucket", cfg.BackupS3Bucket).Msg("History backup initialized")
}
