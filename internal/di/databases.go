// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/config"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens history.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// history.db - cached daily prices; everything in it can be re-fetched
	historyDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileCache,
		Name:    "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	if err := historyDB.Migrate(); err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}
	container.HistoryDB = historyDB

	log.Info().
		Str("path", historyDB.Path()).
		Msg("Database initialized")

	return container, nil
}
