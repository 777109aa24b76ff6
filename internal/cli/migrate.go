package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	mongomigration "bikerent/internal/migrations/mongo"
	pgmigration "bikerent/internal/migrations/postgres"
	"bikerent/pkg/config"
)

const migrationTimeout = 120 * time.Second

type migrateOptions struct {
	storage string
	seed    string
}

func NewMigrate() *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create collections, tables and indexes, optionally seeding assets and renters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.storage, "storage", "", "storage backend (mongo|postgres), overrides STORAGE_TYPE")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "YAML file of assets and renters to upsert after migrating")
	return cmd
}

func runMigrate(cmd *cobra.Command, opts *migrateOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), migrationTimeout)
	defer cancel()

	cfg := config.Load(ServiceName + "-migrate")
	defer cfg.GracefulShutdown(context.Background())

	if opts.storage != "" {
		cfg.StorageType = opts.storage
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	connect(cfg)

	switch cfg.StorageType {
	case config.StorageMongo:
		db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
		if err := mongomigration.RunMigration(ctx, db, cfg.Log); err != nil {
			return err
		}
	case config.StoragePostgres:
		if err := pgmigration.RunMigration(ctx, cfg.Client.Postgres, cfg.Log); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage %q has nothing to migrate", cfg.StorageType)
	}

	if opts.seed == "" {
		return nil
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if err := applySeed(ctx, opts.seed, store.directory); err != nil {
		return err
	}
	cfg.Log.Info("Seed applied", "file", opts.seed)
	return nil
}
