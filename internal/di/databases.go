// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/flipper/internal/clientdata"
	"github.com/aristath/flipper/internal/config"
	"github.com/aristath/flipper/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the client-data cache and applies its schema.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	clientDataDB, err := database.New(database.Config{
		Path:    cfg.CacheDBPath(),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client_data database: %w", err)
	}

	if err := clientDataDB.Migrate(); err != nil {
		clientDataDB.Close()
		return nil, fmt.Errorf("failed to migrate client_data database: %w", err)
	}

	container.ClientDataDB = clientDataDB
	container.ClientDataRepo = clientdata.NewRepository(clientDataDB.Conn())

	log.Info().Str("path", clientDataDB.Path()).Msg("Client data cache ready")

	return container, nil
}
