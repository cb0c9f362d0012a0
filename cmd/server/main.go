// Package main is the entry point of the analytics HTTP service: performance
// reports, portfolio optimization and the efficient frontier over Yahoo
// Finance price histories, with an optional SQLite history cache.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/analytics/internal/config"
	"github.com/aristath/analytics/internal/di"
	"github.com/aristath/analytics/internal/server"
	"github.com/aristath/analytics/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty || cfg.DevMode,
	})
	logger.SetGlobalLogger(log)
	log.Info().Int("port", cfg.Port).Bool("history_cache", cfg.HistoryCacheEnabled).Msg("Starting analytics service")

	container, _, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:            log,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		DataDir:        cfg.DataDir,
		RequestTimeout: 4 * cfg.OptimizerTimeout,
		HistoryDB:      container.HistoryDB,
		Jobs:           container.Scheduler,
		Modules:        di.Handlers(container, cfg, log),
	})

	container.Scheduler.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// In-flight optimizations get the shutdown window to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	container.Scheduler.Stop()

	if container.HistoryDB != nil {
		if err := container.HistoryDB.WALCheckpoint("TRUNCATE"); err != nil {
			log.Warn().Err(err).Msg("Final WAL checkpoint failed")
		}
	}

	log.Info().Msg("Server stopped")
}
