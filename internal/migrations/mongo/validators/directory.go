package validators

import "go.mongodb.org/mongo-driver/bson"

var AssetValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"serial"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":              bson.M{"bsonType": "objectId"},
			"serial":           bson.M{"bsonType": "string", "minLength": 1},
			"model":            bson.M{"bsonType": "string"},
			"color":            bson.M{"bsonType": "string"},
			"company_property": bson.M{"bsonType": "bool"},
		},
	},
}

var RenterValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"tax_id"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":    bson.M{"bsonType": "objectId"},
			"tax_id": bson.M{"bsonType": "string", "minLength": 11},
			"name":   bson.M{"bsonType": "string"},
		},
	},
}
