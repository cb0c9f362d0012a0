// Package di wires the analytics service together: databases, the price
// provider stack, the engines, the scheduler and the HTTP handlers.
package di

import (
	"github.com/aristath/analytics/internal/clients/yahoo"
	"github.com/aristath/analytics/internal/database"
	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/historical"
	"github.com/aristath/analytics/internal/modules/optimization"
	"github.com/aristath/analytics/internal/modules/performance"
	"github.com/aristath/analytics/internal/modules/portfolio"
	"github.com/aristath/analytics/internal/reliability"
	"github.com/aristath/analytics/internal/scheduler"
)

// Container holds all dependencies for the application.
// The history fields are nil when the history cache is disabled.
type Container struct {
	HistoryDB *database.DB

	YahooClient *yahoo.Client
	// PriceProvider is the cache when enabled, the Yahoo client otherwise
	PriceProvider domain.PriceProvider

	HistoryStore   *historical.HistoryDB
	HistoryCache   *historical.CachingProvider
	HistoryService *historical.Service

	Optimizer          *optimization.Optimizer
	PerformanceService *performance.Service
	PortfolioBuilder   *portfolio.Builder

	// Backup fields are nil unless S3 backups are configured
	BackupStore   *reliability.S3Client
	BackupService *reliability.BackupService

	Scheduler *scheduler.Scheduler
}

// Close releases the container resources
func (c *Container) Close() error {
	if c.HistoryDB != nil {
		return c.HistoryDB.Close()
	}
	return nil
}
