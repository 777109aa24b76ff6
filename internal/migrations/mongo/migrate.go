package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bikerent/internal/migrations/mongo/validators"
	"bikerent/internal/rentals/repository"
	"bikerent/pkg/logger"
)

var openOnly = bson.M{"open": true}

var (
	RentalsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "asset_id", Value: 1}},
			Options: options.Index().
				SetName(repository.IndexOpenByAsset).
				SetUnique(true).
				SetPartialFilterExpression(openOnly),
		},
		{
			Keys: bson.D{{Key: "renter_id", Value: 1}},
			Options: options.Index().
				SetName(repository.IndexOpenByRenter).
				SetUnique(true).
				SetPartialFilterExpression(openOnly),
		},
		{Keys: bson.D{{Key: "open", Value: 1}, {Key: "expected_return_at", Value: 1}}},
		{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "started_at", Value: -1}}},
	}

	AssetsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "serial", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	RentersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "tax_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		repository.RentalsCollection: {
			Indexes:   RentalsIndexes,
			Validator: validators.RentalValidator,
		},
		repository.AssetsCollection: {
			Indexes:   AssetsIndexes,
			Validator: validators.AssetValidator,
		},
		repository.RentersCollection: {
			Indexes:   RentersIndexes,
			Validator: validators.RenterValidator,
		},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All Mongo migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
