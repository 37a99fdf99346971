package storage

import (
	"context"
	"fmt"

	"github.com/Steap/liquipedia-scripts/internal/config"
	"github.com/Steap/liquipedia-scripts/internal/observability"
	"github.com/Steap/liquipedia-scripts/internal/players"
	"github.com/Steap/liquipedia-scripts/internal/storage/csvfile"
	"github.com/Steap/liquipedia-scripts/internal/storage/sqlite"
)

// Repository is the known-players registry.
type Repository interface {
	// LoadAll returns every row in stored order, duplicates included.
	LoadAll(ctx context.Context) ([]players.KnownPlayer, error)

	// Upsert writes a row, returning (isNew, isUpdated, error). Both flags
	// are false when the stored row already matches.
	Upsert(ctx context.Context, p players.KnownPlayer) (isNew bool, isUpdated bool, err error)

	// DuplicateIDs reports ESL ids stored more than once.
	DuplicateIDs(ctx context.Context) ([]int64, error)

	// SortedRows returns the registry sorted by notable desc, LP name asc.
	SortedRows(ctx context.Context) ([]players.KnownPlayer, error)

	// Rewrite replaces the whole registry, used by the sort command.
	Rewrite(ctx context.Context, rows []players.KnownPlayer) error

	Close() error
}

// Open builds the repository named by storage.driver.
func Open(cfg *config.Config, logger *observability.Logger) (Repository, error) {
	switch cfg.Storage.Driver {
	case "csv":
		return csvfile.NewRepository(cfg.Storage.Path, logger)
	case "sqlite":
		return sqlite.NewRepository(cfg.Storage.Path, cfg.Storage.CommandTimeoutMS, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}
