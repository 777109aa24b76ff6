package model

import "time"

// Rental binds one asset to one renter. It is open while ReturnedAt is nil.
type Rental struct {
	ID               string     `json:"id,omitempty" bson:"_id,omitempty"`
	AssetID          string     `json:"asset_id" bson:"asset_id"`
	AssetSerial      string     `json:"serial" bson:"asset_serial"`
	RenterID         string     `json:"renter_id" bson:"renter_id"`
	RenterTaxID      string     `json:"tax_id" bson:"renter_tax_id"`
	ContactEmail     string     `json:"contact_email" bson:"contact_email"`
	StartedAt        time.Time  `json:"started_at" bson:"started_at"`
	ExpectedReturnAt time.Time  `json:"expected_return_at" bson:"expected_return_at"`
	ReturnedAt       *time.Time `json:"returned_at,omitempty" bson:"returned_at"`
	DurationHours    int        `json:"duration_hours" bson:"duration_hours"`
	// Open mirrors ReturnedAt == nil and keys the partial unique indexes.
	Open bool `json:"-" bson:"open"`
}

func (r *Rental) IsOpen() bool {
	return r.ReturnedAt == nil
}

// IsOverdue reports whether the rental is still open after its expected return time.
func (r *Rental) IsOverdue(now time.Time) bool {
	return r.IsOpen() && now.After(r.ExpectedReturnAt)
}

// RentalFilter carries the optional criteria of a rental search. A rental matches
// when any present criterion matches (case-insensitive substring); with no
// criteria every rental matches.
type RentalFilter struct {
	Serial *string
	TaxID  *string
}

func (f RentalFilter) IsEmpty() bool {
	return f.Serial == nil && f.TaxID == nil
}

type RentalRequest struct {
	Serial        string `json:"serial" validate:"required,min=6,max=64"`
	TaxID         string `json:"tax_id" validate:"required,tax_id"`
	ContactEmail  string `json:"contact_email" validate:"required,email"`
	DurationHours int    `json:"duration_hours" validate:"gte=0,lte=720"`
}

type ReturnRequest struct {
	TaxID    string `json:"tax_id" validate:"required,tax_id"`
	Returned bool   `json:"returned"`
}
