package repository

import (
	rentalserrors "bikerent/internal/rentals/errors"
	pgtx "bikerent/pkg/db/postgres"
	"bikerent/pkg/model"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rentalRow struct {
	ID               string     `db:"id"`
	AssetID          string     `db:"asset_id"`
	AssetSerial      string     `db:"asset_serial"`
	RenterID         string     `db:"renter_id"`
	RenterTaxID      string     `db:"renter_tax_id"`
	ContactEmail     string     `db:"contact_email"`
	StartedAt        time.Time  `db:"started_at"`
	ExpectedReturnAt time.Time  `db:"expected_return_at"`
	ReturnedAt       *time.Time `db:"returned_at"`
	DurationHours    int        `db:"duration_hours"`
}

func (row *rentalRow) toModel() *model.Rental {
	return &model.Rental{
		ID:               row.ID,
		AssetID:          row.AssetID,
		AssetSerial:      row.AssetSerial,
		RenterID:         row.RenterID,
		RenterTaxID:      row.RenterTaxID,
		ContactEmail:     row.ContactEmail,
		StartedAt:        row.StartedAt,
		ExpectedReturnAt: row.ExpectedReturnAt,
		ReturnedAt:       row.ReturnedAt,
		DurationHours:    row.DurationHours,
		Open:             row.ReturnedAt == nil,
	}
}

type postgresRentalRepository struct {
	pool      *pgxpool.Pool
	txManager *pgtx.TransactionManager
}

func NewPostgresRentalRepository(pool *pgxpool.Pool) RentalRepository {
	return &postgresRentalRepository{
		pool:      pool,
		txManager: pgtx.NewTransactionManager(pool),
	}
}

func (r *postgresRentalRepository) Create(ctx context.Context, rental *model.Rental) error {
	id := uuid.NewString()
	query, args, err := pg.Insert(rentalsTable).Rows(goqu.Record{
		"id":                 id,
		"asset_id":           rental.AssetID,
		"asset_serial":       rental.AssetSerial,
		"renter_id":          rental.RenterID,
		"renter_tax_id":      rental.RenterTaxID,
		"contact_email":      rental.ContactEmail,
		"started_at":         rental.StartedAt,
		"expected_return_at": rental.ExpectedReturnAt,
		"returned_at":        rental.ReturnedAt,
		"duration_hours":     rental.DurationHours,
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build rental insert: %w", err)
	}

	if _, err := r.txManager.Conn(ctx).Exec(ctx, query, args...); err != nil {
		if constraint, ok := pgtx.IsUniqueViolation(err); ok {
			switch constraint {
			case IndexOpenByAsset:
				return rentalserrors.ErrAssetUnavailable
			case IndexOpenByRenter:
				return rentalserrors.ErrRenterHasOpenReservation
			}
		}
		return fmt.Errorf("failed to create rental: %w", err)
	}

	rental.ID = id
	rental.Open = rental.ReturnedAt == nil
	return nil
}

func (r *postgresRentalRepository) FindByID(ctx context.Context, id string) (*model.Rental, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, id)
	}

	query, args, err := pg.From(rentalsTable).Select(rentalColumns...).
		Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build rental query: %w", err)
	}

	rentals, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(rentals) == 0 {
		return nil, rentalserrors.ErrNotFound
	}
	return rentals[0], nil
}

// Update sets returned_at only while it is still NULL, so of two concurrent
// returns exactly one affects a row.
func (r *postgresRentalRepository) Update(ctx context.Context, rental *model.Rental) error {
	if _, err := uuid.Parse(rental.ID); err != nil {
		return fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, rental.ID)
	}

	query, args, err := pg.Update(rentalsTable).
		Set(goqu.Record{"returned_at": rental.ReturnedAt}).
		Where(goqu.C("id").Eq(rental.ID), goqu.C("returned_at").IsNull()).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build rental update: %w", err)
	}

	tag, err := r.txManager.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update rental: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, rental.ID); err != nil {
			return err
		}
		return rentalserrors.ErrAlreadyReturned
	}

	rental.Open = false
	return nil
}

func (r *postgresRentalRepository) HasOpenByAsset(ctx context.Context, assetID string) (bool, error) {
	return r.hasOpen(ctx, goqu.C("asset_id").Eq(assetID))
}

func (r *postgresRentalRepository) HasOpenByRenter(ctx context.Context, renterID string) (bool, error) {
	return r.hasOpen(ctx, goqu.C("renter_id").Eq(renterID))
}

func (r *postgresRentalRepository) hasOpen(ctx context.Context, match goqu.Expression) (bool, error) {
	inner := pg.From(rentalsTable).Select(goqu.L("1")).Where(match, goqu.C("returned_at").IsNull())
	query, args, err := pg.Select(goqu.L("EXISTS ?", inner)).Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build open rental query: %w", err)
	}

	var exists bool
	if err := r.txManager.Conn(ctx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check open rentals: %w", err)
	}
	return exists, nil
}

func (r *postgresRentalRepository) Search(ctx context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, error) {
	query, args, err := searchRentalsQuery(filter, limit, offset).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build rental search: %w", err)
	}
	return r.query(ctx, query, args)
}

func (r *postgresRentalRepository) CountSearch(ctx context.Context, filter model.RentalFilter) (int64, error) {
	query, args, err := countRentalsQuery(filter).Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build rental count: %w", err)
	}
	return r.count(ctx, query, args)
}

func (r *postgresRentalRepository) FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Rental, error) {
	query, args, err := rentalsByRenterQuery(renterID, limit, offset).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build renter rentals query: %w", err)
	}
	return r.query(ctx, query, args)
}

func (r *postgresRentalRepository) CountByRenter(ctx context.Context, renterID string) (int64, error) {
	query, args, err := pg.From(rentalsTable).Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("renter_id").Eq(renterID)).Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build renter rentals count: %w", err)
	}
	return r.count(ctx, query, args)
}

func (r *postgresRentalRepository) FindOverdue(ctx context.Context, now time.Time) ([]*model.Rental, error) {
	query, args, err := overdueRentalsQuery(now).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build overdue query: %w", err)
	}
	return r.query(ctx, query, args)
}

func (r *postgresRentalRepository) query(ctx context.Context, query string, args []any) ([]*model.Rental, error) {
	rows, err := r.txManager.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rentals: %w", err)
	}

	scanned, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[rentalRow])
	if err != nil {
		return nil, fmt.Errorf("failed to decode rentals: %w", err)
	}

	rentals := make([]*model.Rental, 0, len(scanned))
	for _, row := range scanned {
		rentals = append(rentals, row.toModel())
	}
	return rentals, nil
}

func (r *postgresRentalRepository) count(ctx context.Context, query string, args []any) (int64, error) {
	var count int64
	if err := r.txManager.Conn(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count rentals: %w", err)
	}
	return count, nil
}

func (r *postgresRentalRepository) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, pgtx.TransactionFunc(fn))
}

func (r *postgresRentalRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
