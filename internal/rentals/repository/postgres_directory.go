package repository

import (
	rentalserrors "bikerent/internal/rentals/errors"
	pgtx "bikerent/pkg/db/postgres"
	"bikerent/pkg/model"
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresDirectoryRepository struct {
	txManager *pgtx.TransactionManager
}

func NewPostgresDirectoryRepository(pool *pgxpool.Pool) DirectoryRepository {
	return &postgresDirectoryRepository{txManager: pgtx.NewTransactionManager(pool)}
}

func (r *postgresDirectoryRepository) FindAssetBySerial(ctx context.Context, serial string) (*model.Asset, error) {
	query, args, err := pg.From(assetsTable).
		Select("id", "serial", "model", "color", "company_property").
		Where(goqu.C("serial").Eq(serial)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build asset query: %w", err)
	}

	var asset model.Asset
	err = r.txManager.Conn(ctx).QueryRow(ctx, query, args...).
		Scan(&asset.ID, &asset.Serial, &asset.Model, &asset.Color, &asset.CompanyProperty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rentalserrors.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	return &asset, nil
}

func (r *postgresDirectoryRepository) FindRenterByTaxID(ctx context.Context, taxID string) (*model.Renter, error) {
	return r.findRenter(ctx, goqu.C("tax_id").Eq(taxID))
}

func (r *postgresDirectoryRepository) FindRenterByID(ctx context.Context, id string) (*model.Renter, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, rentalserrors.ErrRenterNotFound
	}
	return r.findRenter(ctx, goqu.C("id").Eq(id))
}

func (r *postgresDirectoryRepository) findRenter(ctx context.Context, match goqu.Expression) (*model.Renter, error) {
	query, args, err := pg.From(rentersTable).
		Select("id", "tax_id", "name").
		Where(match).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build renter query: %w", err)
	}

	var renter model.Renter
	err = r.txManager.Conn(ctx).QueryRow(ctx, query, args...).Scan(&renter.ID, &renter.TaxID, &renter.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rentalserrors.ErrRenterNotFound
		}
		return nil, fmt.Errorf("failed to find renter: %w", err)
	}
	return &renter, nil
}

func (r *postgresDirectoryRepository) UpsertAsset(ctx context.Context, asset *model.Asset) error {
	query, args, err := pg.Insert(assetsTable).
		Rows(goqu.Record{
			"id":               uuid.NewString(),
			"serial":           asset.Serial,
			"model":            asset.Model,
			"color":            asset.Color,
			"company_property": asset.CompanyProperty,
		}).
		OnConflict(goqu.DoUpdate("serial", goqu.Record{
			"model":            goqu.L("EXCLUDED.model"),
			"color":            goqu.L("EXCLUDED.color"),
			"company_property": goqu.L("EXCLUDED.company_property"),
		})).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build asset upsert: %w", err)
	}

	if err := r.txManager.Conn(ctx).QueryRow(ctx, query, args...).Scan(&asset.ID); err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}
	return nil
}

func (r *postgresDirectoryRepository) UpsertRenter(ctx context.Context, renter *model.Renter) error {
	query, args, err := pg.Insert(rentersTable).
		Rows(goqu.Record{
			"id":     uuid.NewString(),
			"tax_id": renter.TaxID,
			"name":   renter.Name,
		}).
		OnConflict(goqu.DoUpdate("tax_id", goqu.Record{"name": goqu.L("EXCLUDED.name")})).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build renter upsert: %w", err)
	}

	if err := r.txManager.Conn(ctx).QueryRow(ctx, query, args...).Scan(&renter.ID); err != nil {
		return fmt.Errorf("failed to upsert renter: %w", err)
	}
	return nil
}
