package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"provider_id",
			"client_id",
			"date",
			"time",
			"status",
			"visible_to_client",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"provider_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"client_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			// Either stored clock form: "14:30" or "2:30 PM".
			"time": bson.M{
				"bsonType": "string",
				"pattern":  `^(([01][0-9]|2[0-3]):[0-5][0-9]|(1[0-2]|[1-9]):[0-5][0-9] (AM|PM))$`,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
					"cancelled",
				},
			},

			"reason": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"fee": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"diagnosis": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"prescription": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"provider_notes": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"rating": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"score": bson.M{
						"bsonType": "int",
						"minimum":  1,
						"maximum":  5,
					},
					"feedback": bson.M{
						"bsonType":  "string",
						"maxLength": 2000,
					},
					"is_rated": bson.M{
						"bsonType": "bool",
					},
					"given_at": bson.M{
						"bsonType": "date",
					},
				},
			},

			"visible_to_client": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
