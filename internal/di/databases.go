package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/analytics/internal/config"
	"github.com/aristath/analytics/internal/database"
)

// InitializeDatabases opens and migrates the history cache when it is enabled
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}
	if !cfg.HistoryCacheEnabled {
		log.Info().Msg("History cache disabled, prices are fetched on every request")
		return container, nil
	}

	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileCache,
		Name:    "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	if err := historyDB.Migrate(); err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	container.HistoryDB = historyDB

	log.Info().Str("path", historyDB.Path()).Msg("History cache ready")
	return container, nil
}
