package repository

import (
	"bikerent/pkg/model"
	"bikerent/pkg/sanitizer"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	rentalsTable = "rentals"
	assetsTable  = "assets"
	rentersTable = "renters"
)

var (
	pg = goqu.Dialect("postgres")

	rentalColumns = []any{
		"id", "asset_id", "asset_serial", "renter_id", "renter_tax_id", "contact_email",
		"started_at", "expected_return_at", "returned_at", "duration_hours",
	}
)

// rentalFilterExpression ORs an ILIKE substring match for every present
// criterion. It returns nil when the filter is empty.
func rentalFilterExpression(filter model.RentalFilter) exp.Expression {
	var ors []exp.Expression

	if filter.Serial != nil {
		ors = append(ors, goqu.C("asset_serial").ILike(likeContains(*filter.Serial)))
	}
	if filter.TaxID != nil {
		ors = append(ors, goqu.C("renter_tax_id").ILike(likeContains(*filter.TaxID)))
	}

	if len(ors) == 0 {
		return nil
	}
	return goqu.Or(ors...)
}

func likeContains(term string) string {
	return "%" + sanitizer.EscapeLike(term) + "%"
}

func searchRentalsQuery(filter model.RentalFilter, limit int, offset int64) *goqu.SelectDataset {
	ds := pg.From(rentalsTable).Select(rentalColumns...)
	if where := rentalFilterExpression(filter); where != nil {
		ds = ds.Where(where)
	}
	return paginate(ds, limit, offset)
}

func countRentalsQuery(filter model.RentalFilter) *goqu.SelectDataset {
	ds := pg.From(rentalsTable).Select(goqu.COUNT(goqu.Star()))
	if where := rentalFilterExpression(filter); where != nil {
		ds = ds.Where(where)
	}
	return ds
}

func rentalsByRenterQuery(renterID string, limit int, offset int64) *goqu.SelectDataset {
	ds := pg.From(rentalsTable).Select(rentalColumns...).Where(goqu.C("renter_id").Eq(renterID))
	return paginate(ds, limit, offset)
}

func overdueRentalsQuery(now time.Time) *goqu.SelectDataset {
	return pg.From(rentalsTable).
		Select(rentalColumns...).
		Where(
			goqu.C("returned_at").IsNull(),
			goqu.C("expected_return_at").Lt(now),
		).
		Order(goqu.C("expected_return_at").Asc())
}

func paginate(ds *goqu.SelectDataset, limit int, offset int64) *goqu.SelectDataset {
	ds = ds.Order(goqu.C("started_at").Desc(), goqu.C("id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	return ds
}
