package cli

import (
	"context"
	"fmt"

	"bikerent/internal/rentals/repository"
	"bikerent/pkg/config"
)

type storage struct {
	rentals   repository.RentalRepository
	directory repository.DirectoryRepository
	pinger    repository.Pinger
}

// connect opens the client of a database backend. Connection failures are
// fatal inside cfg.SetMongo and cfg.SetPostgres.
func connect(cfg *config.Config) {
	switch cfg.StorageType {
	case config.StorageMongo:
		cfg.SetMongo()
	case config.StoragePostgres:
		cfg.SetPostgres()
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	connect(cfg)
	return newStorage(ctx, cfg)
}

// newStorage builds the repositories of an already connected backend.
func newStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StorageType {
	case config.StorageMongo:
		return &storage{
			rentals:   repository.NewMongoRentalRepository(cfg),
			directory: repository.NewMongoDirectoryRepository(cfg),
			pinger:    cfg.Client,
		}, nil

	case config.StoragePostgres:
		return &storage{
			rentals:   repository.NewPostgresRentalRepository(cfg.Client.Postgres),
			directory: repository.NewPostgresDirectoryRepository(cfg.Client.Postgres),
			pinger:    cfg.Client,
		}, nil

	case config.StorageMemory:
		repo := repository.NewMemoryRepository()
		if cfg.MemorySeedFile != "" {
			if err := applySeed(ctx, cfg.MemorySeedFile, repo); err != nil {
				return nil, err
			}
			cfg.Log.Info("Memory store seeded", "file", cfg.MemorySeedFile)
		}
		return &storage{
			rentals:   repo,
			directory: repo,
			pinger:    repo,
		}, nil
	}

	return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
}

func applySeed(ctx context.Context, path string, directory repository.DirectoryRepository) error {
	seed, err := repository.LoadSeed(path)
	if err != nil {
		return err
	}
	return seed.Apply(ctx, directory)
}
