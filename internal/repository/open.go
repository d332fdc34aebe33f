package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/task-collab/internal/config"
	"github.com/yukikurage/task-collab/internal/database"
	"github.com/yukikurage/task-collab/internal/logger"
	"go.uber.org/zap"
)

// Open builds and initializes the Store selected by cfg.Driver. Any failure to
// open or prepare the medium is reported as ErrStorageUnavailable.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var store Store
	switch cfg.Driver {
	case database.DriverMemory:
		store = NewMemoryStore()
	case database.DriverBolt:
		db, err := database.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		store = NewBoltStore(db, log)
	case database.DriverSQLite, database.DriverPostgres, database.DriverMySQL:
		db, err := database.Open(cfg, logger.NewGormLogger(log))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		store = NewGormStore(db, log)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrStorageUnavailable, cfg.Driver)
	}

	if err := store.Initialize(ctx); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			log.Warn("failed to close store after initialize error", zap.Error(closeErr))
		}
		return nil, err
	}

	log.Info("task store ready", zap.String("driver", cfg.Driver))
	return store, nil
}
