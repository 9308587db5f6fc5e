// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/aydocorp/opscomposer/internal/config"
	"github.com/aydocorp/opscomposer/internal/database"
	"github.com/aydocorp/opscomposer/internal/storage/gormstore"
	"github.com/aydocorp/opscomposer/internal/storage/memory"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		db, err := database.GetPostgresDB(config.GetDBConfig(), log)
		if err != nil {
			return nil, err
		}
		return gormstore.New(db, gormstore.WithLogger(log)), nil
	case "sqlite":
		db, err := database.GetSqliteDB(cfg.SQLite.Path, log)
		if err != nil {
			return nil, err
		}
		return gormstore.New(db, gormstore.WithLogger(log)), nil
	case "memory", "":
		return memory.New(memory.Config{SnapshotPath: cfg.Memory.SnapshotPath}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
