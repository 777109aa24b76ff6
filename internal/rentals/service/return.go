package service

import (
	"context"
	"errors"
	"strings"
	"time"

	rentalserrors "bikerent/internal/rentals/errors"
	"bikerent/internal/rentals/repository"
	apperrors "bikerent/pkg/errors"
	"bikerent/pkg/logger"
	"bikerent/pkg/model"
)

// ReturnProcessor closes a rental on behalf of the renter who holds it.
type ReturnProcessor struct {
	rentals   repository.RentalRepository
	directory repository.DirectoryRepository
	log       *logger.Logger
	now       func() time.Time
}

func NewReturnProcessor(
	rentals repository.RentalRepository,
	directory repository.DirectoryRepository,
	log *logger.Logger,
) *ReturnProcessor {
	return &ReturnProcessor{
		rentals:   rentals,
		directory: directory,
		log:       log,
		now:       time.Now,
	}
}

// Process verifies the caller against the recorded renter and, when the
// request carries the returned signal, stamps the actual return time. A request
// without the signal leaves the rental untouched and returns it as stored.
func (p *ReturnProcessor) Process(ctx context.Context, id string, req *model.ReturnRequest) (*model.Rental, error) {
	rental, err := p.rentals.FindByID(ctx, id)
	if err != nil {
		return nil, rentalLookupError(err, id)
	}

	taxID := strings.TrimSpace(req.TaxID)
	if _, err := p.directory.FindRenterByTaxID(ctx, taxID); err != nil {
		if errors.Is(err, rentalserrors.ErrRenterNotFound) {
			return nil, apperrors.NotFound("Renter")
		}
		return nil, apperrors.Internal("Failed to look up renter", err)
	}

	if taxID != rental.RenterTaxID {
		p.log.Warn("Return rejected, renter does not hold the rental",
			"rental_id", id,
		)
		return nil, apperrors.Conflict(rentalserrors.CodeRenterMismatch, "Tax ID does not match the renter of this rental")
	}

	if !req.Returned {
		return rental, nil
	}

	if !rental.IsOpen() {
		return nil, alreadyReturned(id)
	}

	returnedAt := p.now().UTC()
	rental.ReturnedAt = &returnedAt
	if err := p.rentals.Update(ctx, rental); err != nil {
		if errors.Is(err, rentalserrors.ErrAlreadyReturned) {
			return nil, alreadyReturned(id)
		}
		return nil, rentalLookupError(err, id)
	}

	p.log.Info("Rental returned",
		"rental_id", id,
		"serial", rental.AssetSerial,
		"late", returnedAt.After(rental.ExpectedReturnAt),
	)
	return rental, nil
}

func alreadyReturned(id string) *apperrors.AppError {
	return apperrors.Conflict(rentalserrors.CodeAlreadyReturned, "Rental has already been returned").
		WithDetails(map[string]any{"id": id})
}

func rentalLookupError(err error, id string) *apperrors.AppError {
	// a malformed id cannot name a stored rental
	if errors.Is(err, rentalserrors.ErrNotFound) || errors.Is(err, rentalserrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Rental", id)
	}
	return apperrors.Internal("Failed to retrieve rental", err)
}
