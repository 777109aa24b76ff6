package repository

import (
	"bikerent/pkg/model"
	"bikerent/pkg/sanitizer"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// buildRentalFilter ORs a case-insensitive substring match for every present
// criterion. User input is escaped so it matches literally.
func buildRentalFilter(filter model.RentalFilter) bson.M {
	var clauses []bson.M

	if filter.Serial != nil {
		clauses = append(clauses, bson.M{"asset_serial": containsIgnoreCase(*filter.Serial)})
	}
	if filter.TaxID != nil {
		clauses = append(clauses, bson.M{"renter_tax_id": containsIgnoreCase(*filter.TaxID)})
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$or": clauses}
	}
}

func containsIgnoreCase(term string) primitive.Regex {
	return primitive.Regex{Pattern: sanitizer.EscapeRegex(term), Options: "i"}
}

func buildOverdueFilter(now time.Time) bson.M {
	return bson.M{
		"open":               true,
		"expected_return_at": bson.M{"$lt": now},
	}
}
