package repository

import (
	"bikerent/pkg/model"
	"context"
	"time"
)

const (
	RentalsCollection = "Rentals"
	AssetsCollection  = "Assets"
	RentersCollection = "Renters"

	// Partial unique indexes over open rentals. Their names let a duplicate key
	// error be traced back to the rule it broke.
	IndexOpenByAsset  = "rentals_open_asset_idx"
	IndexOpenByRenter = "rentals_open_renter_idx"
)

type TransactionFunc func(ctx context.Context) error

// RentalRepository is the ledger of rentals.
type RentalRepository interface {
	Create(ctx context.Context, rental *model.Rental) error
	FindByID(ctx context.Context, id string) (*model.Rental, error)
	// Update persists the return of an open rental. It fails with
	// ErrAlreadyReturned if another caller closed the rental first.
	Update(ctx context.Context, rental *model.Rental) error
	HasOpenByAsset(ctx context.Context, assetID string) (bool, error)
	HasOpenByRenter(ctx context.Context, renterID string) (bool, error)
	Search(ctx context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, error)
	CountSearch(ctx context.Context, filter model.RentalFilter) (int64, error)
	FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Rental, error)
	CountByRenter(ctx context.Context, renterID string) (int64, error)
	FindOverdue(ctx context.Context, now time.Time) ([]*model.Rental, error)
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

// DirectoryRepository resolves the assets and renters a rental refers to.
type DirectoryRepository interface {
	FindAssetBySerial(ctx context.Context, serial string) (*model.Asset, error)
	FindRenterByTaxID(ctx context.Context, taxID string) (*model.Renter, error)
	FindRenterByID(ctx context.Context, id string) (*model.Renter, error)
	UpsertAsset(ctx context.Context, asset *model.Asset) error
	UpsertRenter(ctx context.Context, renter *model.Renter) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
