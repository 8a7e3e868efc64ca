// Package factory opens the store selected by configuration.
package factory

import (
	"context"
	"database/sql"
	"fmt"

	"ngo-backend/internal/config"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
	"ngo-backend/internal/repository/firestore"
	"ngo-backend/internal/repository/memory"
	"ngo-backend/internal/repository/postgres"
)

func Open(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Type {
	case config.StoreFirestore:
		logger.Info("Using Firestore store", "project_id", cfg.Firebase.ProjectID)
		client, err := firestore.NewClient(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return firestore.NewStore(client), nil

	case config.StorePostgres:
		logger.Info("Using Postgres store", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		connStr := cfg.GetDatabaseConnectionString()
		db, err := sql.Open("postgres", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")
		if cfg.Database.ApplySchema {
			if err := postgres.ApplySchema(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return postgres.NewStore(db, connStr), nil

	case config.StoreMemory:
		logger.Warn("Using in-memory store, data is lost on exit")
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
}
