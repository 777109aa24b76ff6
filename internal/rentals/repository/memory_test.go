package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	rentalserrors "bikerent/internal/rentals/errors"
	"bikerent/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRental(assetID, serial, renterID, taxID string, start time.Time, hours int) *model.Rental {
	return &model.Rental{
		AssetID:          assetID,
		AssetSerial:      serial,
		RenterID:         renterID,
		RenterTaxID:      taxID,
		ContactEmail:     renterID + "@example.com",
		StartedAt:        start,
		ExpectedReturnAt: start.Add(time.Duration(hours+1) * time.Hour),
		DurationHours:    hours,
	}
}

func strPtr(s string) *string { return &s }

func TestMemoryRepository_CreateAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rental := newRental("a1", "123456", "r1", "047.835.850-40", t0, 2)
	require.NoError(t, repo.Create(ctx, rental))
	require.NotEmpty(t, rental.ID)
	assert.True(t, rental.Open)

	found, err := repo.FindByID(ctx, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456", found.AssetSerial)
	assert.Equal(t, t0.Add(3*time.Hour), found.ExpectedReturnAt)
	assert.Nil(t, found.ReturnedAt)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, rentalserrors.ErrNotFound)
}

func TestMemoryRepository_CreateRejectsSecondOpenRental(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRental("a1", "123456", "r1", "111", t0, 1)))

	err := repo.Create(ctx, newRental("a1", "123456", "r2", "222", t0, 1))
	assert.ErrorIs(t, err, rentalserrors.ErrAssetUnavailable)

	err = repo.Create(ctx, newRental("a2", "654321", "r1", "111", t0, 1))
	assert.ErrorIs(t, err, rentalserrors.ErrRenterHasOpenReservation)
}

func TestMemoryRepository_UpdateClosesOnce(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rental := newRental("a1", "123456", "r1", "111", t0, 1)
	require.NoError(t, repo.Create(ctx, rental))

	returnedAt := t0.Add(30 * time.Minute)
	first := *rental
	first.ReturnedAt = &returnedAt
	require.NoError(t, repo.Update(ctx, &first))
	assert.False(t, first.Open)

	second := *rental
	second.ReturnedAt = &returnedAt
	assert.ErrorIs(t, repo.Update(ctx, &second), rentalserrors.ErrAlreadyReturned)

	missing := model.Rental{ID: "missing", ReturnedAt: &returnedAt}
	assert.ErrorIs(t, repo.Update(ctx, &missing), rentalserrors.ErrNotFound)

	open, err := repo.HasOpenByAsset(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, open)

	// the asset and renter are free again
	require.NoError(t, repo.Create(ctx, newRental("a1", "123456", "r1", "111", t0.Add(time.Hour), 1)))
}

func TestMemoryRepository_ExecuteTransactionRollsBack(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, newRental("a1", "123456", "r1", "111", t0, 1)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := repo.CountSearch(ctx, model.RentalFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryRepository_ConcurrentAdmissionOfSameAsset(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	const workers = 50
	var admitted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			renterID := fmt.Sprintf("r%d", i)
			err := repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
				open, err := repo.HasOpenByAsset(ctx, "a1")
				if err != nil {
					return err
				}
				if open {
					return rentalserrors.ErrAssetUnavailable
				}
				return repo.Create(ctx, newRental("a1", "123456", renterID, renterID, t0, 1))
			})
			if err == nil {
				admitted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
	count, err := repo.CountSearch(ctx, model.RentalFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryRepository_Search(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRental("a1", "ABC123", "r1", "047.835.850-40", t0, 1)))
	require.NoError(t, repo.Create(ctx, newRental("a2", "XYZ999", "r2", "111.444.777-35", t0.Add(time.Hour), 1)))
	require.NoError(t, repo.Create(ctx, newRental("a3", "QQQ777", "r3", "529.982.247-25", t0.Add(2*time.Hour), 1)))

	tests := []struct {
		name    string
		filter  model.RentalFilter
		serials []string
	}{
		{"empty filter matches all newest first", model.RentalFilter{}, []string{"QQQ777", "XYZ999", "ABC123"}},
		{"serial substring ignores case", model.RentalFilter{Serial: strPtr("abc")}, []string{"ABC123"}},
		{"tax id substring", model.RentalFilter{TaxID: strPtr("444")}, []string{"XYZ999"}},
		{"criteria are ORed", model.RentalFilter{Serial: strPtr("qqq"), TaxID: strPtr("835")}, []string{"QQQ777", "ABC123"}},
		{"no match", model.RentalFilter{Serial: strPtr("nope")}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rentals, err := repo.Search(ctx, tt.filter, 10, 0)
			require.NoError(t, err)

			serials := make([]string, 0, len(rentals))
			for _, r := range rentals {
				serials = append(serials, r.AssetSerial)
			}
			assert.Equal(t, tt.serials, serials)

			count, err := repo.CountSearch(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.serials)), count)
		})
	}

	t.Run("pagination", func(t *testing.T) {
		rentals, err := repo.Search(ctx, model.RentalFilter{}, 1, 1)
		require.NoError(t, err)
		require.Len(t, rentals, 1)
		assert.Equal(t, "XYZ999", rentals[0].AssetSerial)

		rentals, err = repo.Search(ctx, model.RentalFilter{}, 10, 5)
		require.NoError(t, err)
		assert.Empty(t, rentals)
	})
}

func TestMemoryRepository_FindByRenter(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := newRental("a1", "ABC123", "r1", "111", t0, 1)
	require.NoError(t, repo.Create(ctx, first))
	returnedAt := t0.Add(time.Hour)
	first.ReturnedAt = &returnedAt
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, repo.Create(ctx, newRental("a2", "XYZ999", "r1", "111", t0.Add(2*time.Hour), 1)))
	require.NoError(t, repo.Create(ctx, newRental("a1", "ABC123", "r2", "222", t0.Add(2*time.Hour), 1)))

	rentals, err := repo.FindByRenter(ctx, "r1", 10, 0)
	require.NoError(t, err)
	require.Len(t, rentals, 2)
	assert.Equal(t, "XYZ999", rentals[0].AssetSerial)

	count, err := repo.CountByRenter(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryRepository_FindOverdue(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	late := newRental("a1", "ABC123", "r1", "111", t0, 1)
	later := newRental("a2", "XYZ999", "r2", "222", t0.Add(-2*time.Hour), 0)
	onTime := newRental("a3", "QQQ777", "r3", "333", t0, 48)
	returned := newRental("a4", "WWW555", "r4", "444", t0.Add(-5*time.Hour), 0)
	for _, r := range []*model.Rental{late, later, onTime, returned} {
		require.NoError(t, repo.Create(ctx, r))
	}
	returnedAt := t0
	returned.ReturnedAt = &returnedAt
	require.NoError(t, repo.Update(ctx, returned))

	now := t0.Add(3 * time.Hour)
	overdue, err := repo.FindOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, later.ID, overdue[0].ID)
	assert.Equal(t, late.ID, overdue[1].ID)

	// expected return equal to now is not overdue
	overdue, err = repo.FindOverdue(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, later.ID, overdue[0].ID)
}

func TestMemoryRepository_Directory(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	asset := &model.Asset{Serial: "123456", Model: "Caloi 10", Color: "red"}
	require.NoError(t, repo.UpsertAsset(ctx, asset))
	id := asset.ID

	again := &model.Asset{Serial: "123456", Model: "Caloi 10", Color: "blue"}
	require.NoError(t, repo.UpsertAsset(ctx, again))
	assert.Equal(t, id, again.ID)

	found, err := repo.FindAssetBySerial(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, "blue", found.Color)

	_, err = repo.FindAssetBySerial(ctx, "000000")
	assert.ErrorIs(t, err, rentalserrors.ErrAssetNotFound)

	renter := &model.Renter{TaxID: "047.835.850-40", Name: "Ana"}
	require.NoError(t, repo.UpsertRenter(ctx, renter))

	byTax, err := repo.FindRenterByTaxID(ctx, "047.835.850-40")
	require.NoError(t, err)
	assert.Equal(t, renter.ID, byTax.ID)

	byID, err := repo.FindRenterByID(ctx, renter.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", byID.Name)

	_, err = repo.FindRenterByID(ctx, "missing")
	assert.ErrorIs(t, err, rentalserrors.ErrRenterNotFound)
}
