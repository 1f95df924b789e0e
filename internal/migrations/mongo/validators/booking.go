package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"code",
			"tour_id",
			"tour_type",
			"contact",
			"guests",
			"pricing",
			"status",
			"expires_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"code": bson.M{
				"bsonType":  "string",
				"minLength": 9,
				"maxLength": 9,
			},

			"tour_id": bson.M{
				"bsonType": "objectId",
			},

			"tour_date_id": bson.M{
				"bsonType": "objectId",
			},

			"travel_date": bson.M{
				"bsonType": "date",
			},

			"tour_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"private",
					"group",
				},
			},

			"contact": bson.M{
				"bsonType": "object",
				"required": []string{"full_name", "email"},
				"properties": bson.M{
					"full_name": bson.M{
						"bsonType":  "string",
						"minLength": 1,
						"maxLength": 200,
					},
					"email": bson.M{
						"bsonType":  "string",
						"minLength": 3,
						"maxLength": 254,
					},
				},
			},

			"guests": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"full_name"},
				},
			},

			"pricing": bson.M{
				"bsonType": "object",
				"required": []string{"currency", "total"},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending_payment",
					"confirmed",
					"cancelled",
					"expired",
				},
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
