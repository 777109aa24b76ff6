package errors

import "errors"

var (
	ErrNotFound = errors.New("rental not found")

	ErrInvalidID = errors.New("invalid rental ID format")

	ErrAssetNotFound = errors.New("asset not found")

	ErrRenterNotFound = errors.New("renter not found")

	ErrAssetUnavailable = errors.New("asset already has an open rental")

	ErrRenterHasOpenReservation = errors.New("renter already has an open rental")

	ErrAlreadyReturned = errors.New("rental already returned")
)

// Application error codes carried in API responses.
const (
	CodeAssetUnavailable    = "ASSET_UNAVAILABLE"
	CodeRenterHasOpenRental = "RENTER_HAS_OPEN_RENTAL"
	CodeRenterMismatch      = "RENTER_MISMATCH"
	CodeAlreadyReturned     = "ALREADY_RETURNED"
)
