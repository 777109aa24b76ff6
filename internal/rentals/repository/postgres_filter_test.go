package repository

import (
	"testing"

	"bikerent/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRentalsQuery(t *testing.T) {
	t.Run("no criteria has no where clause", func(t *testing.T) {
		sql, _, err := searchRentalsQuery(model.RentalFilter{}, 10, 0).Prepared(true).ToSQL()
		require.NoError(t, err)
		assert.NotContains(t, sql, "WHERE")
		assert.Contains(t, sql, `FROM "rentals"`)
		assert.Contains(t, sql, `ORDER BY "started_at" DESC, "id" ASC`)
	})

	t.Run("criteria are ORed ILIKE matches", func(t *testing.T) {
		filter := model.RentalFilter{Serial: strPtr("ab_1"), TaxID: strPtr("50%")}
		sql, args, err := searchRentalsQuery(filter, 10, 0).Prepared(true).ToSQL()
		require.NoError(t, err)
		assert.Contains(t, sql, `"asset_serial" ILIKE $1`)
		assert.Contains(t, sql, " OR ")
		assert.Contains(t, sql, `"renter_tax_id" ILIKE $2`)
		require.GreaterOrEqual(t, len(args), 2)
		assert.Equal(t, `%ab\_1%`, args[0])
		assert.Equal(t, `%50\%%`, args[1])
	})

	t.Run("single criterion", func(t *testing.T) {
		sql, args, err := searchRentalsQuery(model.RentalFilter{TaxID: strPtr("835")}, 5, 10).Prepared(true).ToSQL()
		require.NoError(t, err)
		assert.Contains(t, sql, `"renter_tax_id" ILIKE $1`)
		assert.NotContains(t, sql, "asset_serial\" ILIKE")
		assert.Contains(t, sql, "LIMIT")
		assert.Contains(t, sql, "OFFSET")
		assert.Equal(t, "%835%", args[0])
	})
}

func TestCountRentalsQuery(t *testing.T) {
	sql, _, err := countRentalsQuery(model.RentalFilter{Serial: strPtr("x")}).Prepared(true).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `SELECT COUNT(*) FROM "rentals"`)
	assert.Contains(t, sql, "ILIKE")
	assert.NotContains(t, sql, "ORDER BY")
}

func TestOverdueRentalsQuery(t *testing.T) {
	sql, args, err := overdueRentalsQuery(t0).Prepared(true).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `"returned_at" IS NULL`)
	assert.Contains(t, sql, `"expected_return_at" < $1`)
	assert.Contains(t, sql, `ORDER BY "expected_return_at" ASC`)
	assert.NotContains(t, sql, "LIMIT")
	assert.Equal(t, []any{t0}, args)
}
