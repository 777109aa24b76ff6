package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "rentals_open_asset_idx"})

	name, ok := IsUniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "rentals_open_asset_idx", name)

	_, ok = IsUniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = IsUniqueViolation(fmt.Errorf("plain"))
	assert.False(t, ok)
}
