package validators

import "go.mongodb.org/mongo-driver/bson"

var RentalValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"asset_id",
			"asset_serial",
			"renter_id",
			"renter_tax_id",
			"contact_email",
			"started_at",
			"expected_return_at",
			"duration_hours",
			"open",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":           bson.M{"bsonType": "objectId"},
			"asset_id":      bson.M{"bsonType": "string", "minLength": 1},
			"asset_serial":  bson.M{"bsonType": "string", "minLength": 1},
			"renter_id":     bson.M{"bsonType": "string", "minLength": 1},
			"renter_tax_id": bson.M{"bsonType": "string", "minLength": 11},
			"contact_email": bson.M{"bsonType": "string"},
			"started_at":    bson.M{"bsonType": "date"},

			"expected_return_at": bson.M{"bsonType": "date"},

			"returned_at": bson.M{
				"bsonType": []string{"date", "null"},
			},

			"duration_hours": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"open": bson.M{"bsonType": "bool"},
		},
	},
}
