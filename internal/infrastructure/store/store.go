// Package store opens the user store selected by STORE_DRIVER.
package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/config"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
	"github.com/oksasatya/go-user-management/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-management/internal/infrastructure/mongodb"
	"github.com/oksasatya/go-user-management/internal/infrastructure/postgres"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Open connects to the configured backend and prepares its schema.
// The returned close function releases the connection.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.RunMigrations(cfg.PostgresDSN(), logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.WithField("driver", DriverPostgres).Info("user store ready")
		return postgres.NewUserRepository(pool, cfg.StoreTimeout), pool.Close, nil

	case DriverMongo:
		client, err := mongodb.NewClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		repo := mongodb.NewUserRepository(client.Database(cfg.MongoDatabase), cfg.StoreTimeout)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.WithField("driver", DriverMongo).Info("user store ready")
		return repo, closeFn, nil

	case DriverMemory:
		logger.WithField("driver", DriverMemory).Warn("user store is in-memory; data is lost on restart")
		return memory.NewUserRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
