package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSeedAndApply(t *testing.T) {
	path := writeSeed(t, `
assets:
  - serial: " 123456 "
    model: Caloi 10
    color: red
    company_property: true
renters:
  - tax_id: "047.835.850-40"
    name: Ana
`)

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Assets, 1)
	assert.Equal(t, "123456", seed.Assets[0].Serial)
	assert.True(t, seed.Assets[0].CompanyProperty)

	repo := NewMemoryRepository()
	require.NoError(t, seed.Apply(context.Background(), repo))
	assert.NotEmpty(t, seed.Assets[0].ID)

	asset, err := repo.FindAssetBySerial(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "Caloi 10", asset.Model)

	renter, err := repo.FindRenterByTaxID(context.Background(), "047.835.850-40")
	require.NoError(t, err)
	assert.Equal(t, seed.Renters[0].ID, renter.ID)
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadSeed(writeSeed(t, "assets: [not: valid"))
	assert.Error(t, err)

	_, err = LoadSeed(writeSeed(t, "assets:\n  - model: no serial\n"))
	assert.ErrorContains(t, err, "no serial")
}
