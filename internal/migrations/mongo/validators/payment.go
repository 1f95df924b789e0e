package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"provider",
			"invoice_id",
			"amount",
			"currency",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": bson.M{
				"bsonType": "objectId",
			},

			"provider": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 40,
			},

			"invoice_id": bson.M{
				"bsonType":  "string",
				"minLength": 4,
				"maxLength": 64,
			},

			"amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"created",
					"pending",
					"paid",
					"failed",
					"expired",
					"refunded",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
