package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/config"
	historicalhandlers "github.com/aristath/analytics/internal/modules/historical/handlers"
	optimizationhandlers "github.com/aristath/analytics/internal/modules/optimization/handlers"
	performancehandlers "github.com/aristath/analytics/internal/modules/performance/handlers"
	portfoliohandlers "github.com/aristath/analytics/internal/modules/portfolio/handlers"
	"github.com/aristath/analytics/internal/server"
)

// Handlers builds the HTTP handlers of every module
func Handlers(container *Container, cfg *config.Config, log zerolog.Logger) []server.RouteRegistrar {
	modules := []server.RouteRegistrar{
		performancehandlers.NewHandler(container.PerformanceService, performancehandlers.Defaults{
			Benchmark:       cfg.DefaultBenchmark,
			ConfidenceLevel: cfg.DefaultConfidenceLevel,
			RiskFreeRate:    cfg.DefaultRiskFreeRate,
			Lookback:        cfg.DefaultLookback,
		}, log),
		optimizationhandlers.NewHandler(container.Optimizer, optimizationhandlers.Defaults{
			ConfidenceLevel: cfg.DefaultConfidenceLevel,
			RiskFreeRate:    cfg.DefaultRiskFreeRate,
			FrontierPoints:  cfg.FrontierPoints,
		}, log),
		portfoliohandlers.NewHandler(container.PortfolioBuilder, portfoliohandlers.Defaults{
			Benchmark:       cfg.DefaultBenchmark,
			ConfidenceLevel: cfg.DefaultConfidenceLevel,
			RiskFreeRate:    cfg.DefaultRiskFreeRate,
			Lookback:        cfg.DefaultLookback,
			FrontierPoints:  cfg.FrontierPoints,
		}, log).AllowOrigins(cfg.StreamOrigins...),
	}

	if container.HistoryService != nil {
		modules = append(modules, historicalhandlers.NewHandler(container.HistoryService, cfg.DefaultLookback, log))
	}
	return modules
}
