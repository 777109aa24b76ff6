package repository

import (
	rentalserrors "bikerent/internal/rentals/errors"
	"bikerent/pkg/config"
	"bikerent/pkg/model"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDirectoryRepository struct {
	cfg     *config.Config
	assets  *mongo.Collection
	renters *mongo.Collection
}

func NewMongoDirectoryRepository(cfg *config.Config) DirectoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDirectoryRepository{
		cfg:     cfg,
		assets:  db.Collection(AssetsCollection),
		renters: db.Collection(RentersCollection),
	}
}

func (r *mongoDirectoryRepository) FindAssetBySerial(ctx context.Context, serial string) (*model.Asset, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var asset model.Asset
	err := r.assets.FindOne(ctx, bson.M{"serial": serial}).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rentalserrors.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	return &asset, nil
}

func (r *mongoDirectoryRepository) FindRenterByTaxID(ctx context.Context, taxID string) (*model.Renter, error) {
	return r.findRenter(ctx, bson.M{"tax_id": taxID})
}

func (r *mongoDirectoryRepository) FindRenterByID(ctx context.Context, id string) (*model.Renter, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, rentalserrors.ErrRenterNotFound
	}
	return r.findRenter(ctx, bson.M{"_id": objectID})
}

func (r *mongoDirectoryRepository) findRenter(ctx context.Context, filter bson.M) (*model.Renter, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var renter model.Renter
	err := r.renters.FindOne(ctx, filter).Decode(&renter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rentalserrors.ErrRenterNotFound
		}
		return nil, fmt.Errorf("failed to find renter: %w", err)
	}
	return &renter, nil
}

func (r *mongoDirectoryRepository) UpsertAsset(ctx context.Context, asset *model.Asset) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"model":            asset.Model,
		"color":            asset.Color,
		"company_property": asset.CompanyProperty,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.Asset
	if err := r.assets.FindOneAndUpdate(ctx, bson.M{"serial": asset.Serial}, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}
	asset.ID = stored.ID
	return nil
}

func (r *mongoDirectoryRepository) UpsertRenter(ctx context.Context, renter *model.Renter) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"name": renter.Name}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.Renter
	if err := r.renters.FindOneAndUpdate(ctx, bson.M{"tax_id": renter.TaxID}, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to upsert renter: %w", err)
	}
	renter.ID = stored.ID
	return nil
}
