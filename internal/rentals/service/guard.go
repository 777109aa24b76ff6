package service

import (
	"context"
	"errors"
	"fmt"

	rentalserrors "bikerent/internal/rentals/errors"
	"bikerent/internal/rentals/repository"
	apperrors "bikerent/pkg/errors"
	"bikerent/pkg/logger"
	"bikerent/pkg/model"
)

// ReservationGuard admits a rental only when neither its asset nor its renter
// already has an open one. The check and the insert share one transaction and
// the store's unique indexes reject whatever slips between them.
type ReservationGuard struct {
	repo repository.RentalRepository
	log  *logger.Logger
}

func NewReservationGuard(repo repository.RentalRepository, log *logger.Logger) *ReservationGuard {
	return &ReservationGuard{repo: repo, log: log}
}

func (g *ReservationGuard) Admit(ctx context.Context, rental *model.Rental) error {
	return g.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		busy, err := g.repo.HasOpenByAsset(txCtx, rental.AssetID)
		if err != nil {
			return fmt.Errorf("failed to check asset availability: %w", err)
		}
		if busy {
			return assetUnavailable(rental.AssetSerial)
		}

		busy, err = g.repo.HasOpenByRenter(txCtx, rental.RenterID)
		if err != nil {
			return fmt.Errorf("failed to check renter rentals: %w", err)
		}
		if busy {
			return renterHasOpenRental(rental.RenterTaxID)
		}

		if err := g.repo.Create(txCtx, rental); err != nil {
			switch {
			case errors.Is(err, rentalserrors.ErrAssetUnavailable):
				return assetUnavailable(rental.AssetSerial)
			case errors.Is(err, rentalserrors.ErrRenterHasOpenReservation):
				return renterHasOpenRental(rental.RenterTaxID)
			}
			return fmt.Errorf("failed to create rental: %w", err)
		}

		return nil
	})
}

func assetUnavailable(serial string) *apperrors.AppError {
	return apperrors.Conflict(rentalserrors.CodeAssetUnavailable, "Asset already has an open rental").
		WithDetails(map[string]any{"serial": serial})
}

func renterHasOpenRental(taxID string) *apperrors.AppError {
	return apperrors.Conflict(rentalserrors.CodeRenterHasOpenRental, "Renter already has an open rental").
		WithDetails(map[string]any{"tax_id": taxID})
}
