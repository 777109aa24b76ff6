package repository

import (
	rentalserrors "bikerent/internal/rentals/errors"
	"bikerent/pkg/model"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

type memoryTxKey struct{}

// MemoryRepository keeps the ledger and the directory in process memory. A
// single mutex serializes writers; ExecuteTransaction holds it for the whole
// callback and restores the previous state if the callback fails.
type MemoryRepository struct {
	mu      sync.Mutex
	rentals map[string]model.Rental
	assets  map[string]model.Asset
	renters map[string]model.Renter
	fold    cases.Caser
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rentals: make(map[string]model.Rental),
		assets:  make(map[string]model.Asset),
		renters: make(map[string]model.Renter),
		fold:    cases.Fold(),
	}
}

func (r *MemoryRepository) lock(ctx context.Context) func() {
	if tx, ok := ctx.Value(memoryTxKey{}).(*MemoryRepository); ok && tx == r {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *MemoryRepository) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	unlock := r.lock(ctx)
	defer unlock()

	snapshot := maps.Clone(r.rentals)
	if err := fn(context.WithValue(ctx, memoryTxKey{}, r)); err != nil {
		r.rentals = snapshot
		return err
	}
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Create(ctx context.Context, rental *model.Rental) error {
	unlock := r.lock(ctx)
	defer unlock()

	if rental.ReturnedAt == nil {
		if r.hasOpen(func(x model.Rental) bool { return x.AssetID == rental.AssetID }) {
			return rentalserrors.ErrAssetUnavailable
		}
		if r.hasOpen(func(x model.Rental) bool { return x.RenterID == rental.RenterID }) {
			return rentalserrors.ErrRenterHasOpenReservation
		}
	}

	rental.ID = uuid.NewString()
	rental.Open = rental.ReturnedAt == nil
	r.rentals[rental.ID] = *rental
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Rental, error) {
	unlock := r.lock(ctx)
	defer unlock()

	rental, ok := r.rentals[id]
	if !ok {
		return nil, rentalserrors.ErrNotFound
	}
	return &rental, nil
}

func (r *MemoryRepository) Update(ctx context.Context, rental *model.Rental) error {
	unlock := r.lock(ctx)
	defer unlock()

	stored, ok := r.rentals[rental.ID]
	if !ok {
		return rentalserrors.ErrNotFound
	}
	if stored.ReturnedAt != nil {
		return rentalserrors.ErrAlreadyReturned
	}

	returnedAt := *rental.ReturnedAt
	stored.ReturnedAt = &returnedAt
	stored.Open = false
	r.rentals[rental.ID] = stored
	rental.Open = false
	return nil
}

func (r *MemoryRepository) HasOpenByAsset(ctx context.Context, assetID string) (bool, error) {
	unlock := r.lock(ctx)
	defer unlock()
	return r.hasOpen(func(x model.Rental) bool { return x.AssetID == assetID }), nil
}

func (r *MemoryRepository) HasOpenByRenter(ctx context.Context, renterID string) (bool, error) {
	unlock := r.lock(ctx)
	defer unlock()
	return r.hasOpen(func(x model.Rental) bool { return x.RenterID == renterID }), nil
}

func (r *MemoryRepository) hasOpen(match func(model.Rental) bool) bool {
	for _, rental := range r.rentals {
		if rental.ReturnedAt == nil && match(rental) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Search(ctx context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, error) {
	unlock := r.lock(ctx)
	defer unlock()
	return page(r.collect(r.filterMatcher(filter)), limit, offset), nil
}

func (r *MemoryRepository) CountSearch(ctx context.Context, filter model.RentalFilter) (int64, error) {
	unlock := r.lock(ctx)
	defer unlock()
	return int64(len(r.collect(r.filterMatcher(filter)))), nil
}

func (r *MemoryRepository) FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Rental, error) {
	unlock := r.lock(ctx)
	defer unlock()
	return page(r.collect(func(x model.Rental) bool { return x.RenterID == renterID }), limit, offset), nil
}

func (r *MemoryRepository) CountByRenter(ctx context.Context, renterID string) (int64, error) {
	unlock := r.lock(ctx)
	defer unlock()
	return int64(len(r.collect(func(x model.Rental) bool { return x.RenterID == renterID }))), nil
}

func (r *MemoryRepository) FindOverdue(ctx context.Context, now time.Time) ([]*model.Rental, error) {
	unlock := r.lock(ctx)
	defer unlock()

	overdue := r.collect(func(x model.Rental) bool { return x.IsOverdue(now) })
	slices.SortFunc(overdue, func(a, b *model.Rental) int {
		return a.ExpectedReturnAt.Compare(b.ExpectedReturnAt)
	})
	return overdue, nil
}

// filterMatcher ORs the present criteria as case-insensitive substring matches.
func (r *MemoryRepository) filterMatcher(filter model.RentalFilter) func(model.Rental) bool {
	if filter.IsEmpty() {
		return func(model.Rental) bool { return true }
	}

	var serial, taxID string
	if filter.Serial != nil {
		serial = r.fold.String(*filter.Serial)
	}
	if filter.TaxID != nil {
		taxID = r.fold.String(*filter.TaxID)
	}

	return func(x model.Rental) bool {
		if filter.Serial != nil && strings.Contains(r.fold.String(x.AssetSerial), serial) {
			return true
		}
		if filter.TaxID != nil && strings.Contains(r.fold.String(x.RenterTaxID), taxID) {
			return true
		}
		return false
	}
}

// collect returns copies of the matching rentals, newest first.
func (r *MemoryRepository) collect(match func(model.Rental) bool) []*model.Rental {
	var out []*model.Rental
	for _, rental := range r.rentals {
		if match(rental) {
			copied := rental
			out = append(out, &copied)
		}
	}
	slices.SortFunc(out, func(a, b *model.Rental) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func page(rentals []*model.Rental, limit int, offset int64) []*model.Rental {
	if offset >= int64(len(rentals)) {
		return []*model.Rental{}
	}
	rentals = rentals[offset:]
	if limit > 0 && limit < len(rentals) {
		rentals = rentals[:limit]
	}
	return rentals
}

func (r *MemoryRepository) FindAssetBySerial(ctx context.Context, serial string) (*model.Asset, error) {
	unlock := r.lock(ctx)
	defer unlock()

	for _, asset := range r.assets {
		if asset.Serial == serial {
			return &asset, nil
		}
	}
	return nil, rentalserrors.ErrAssetNotFound
}

func (r *MemoryRepository) FindRenterByTaxID(ctx context.Context, taxID string) (*model.Renter, error) {
	unlock := r.lock(ctx)
	defer unlock()

	for _, renter := range r.renters {
		if renter.TaxID == taxID {
			return &renter, nil
		}
	}
	return nil, rentalserrors.ErrRenterNotFound
}

func (r *MemoryRepository) FindRenterByID(ctx context.Context, id string) (*model.Renter, error) {
	unlock := r.lock(ctx)
	defer unlock()

	renter, ok := r.renters[id]
	if !ok {
		return nil, rentalserrors.ErrRenterNotFound
	}
	return &renter, nil
}

func (r *MemoryRepository) UpsertAsset(ctx context.Context, asset *model.Asset) error {
	unlock := r.lock(ctx)
	defer unlock()

	for id, existing := range r.assets {
		if existing.Serial == asset.Serial {
			asset.ID = id
			break
		}
	}
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	r.assets[asset.ID] = *asset
	return nil
}

func (r *MemoryRepository) UpsertRenter(ctx context.Context, renter *model.Renter) error {
	unlock := r.lock(ctx)
	defer unlock()

	for id, existing := range r.renters {
		if existing.TaxID == renter.TaxID {
			renter.ID = id
			break
		}
	}
	if renter.ID == "" {
		renter.ID = uuid.NewString()
	}
	r.renters[renter.ID] = *renter
	return nil
}
