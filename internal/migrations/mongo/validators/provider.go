package validators

import "go.mongodb.org/mongo-driver/bson"

var ProviderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"specialty",
			"fee",
			"availability",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  `^[^@\s]+@[^@\s]+\.[^@\s]+$`,
			},

			"phone": bson.M{
				"bsonType": "string",
			},

			"specialty": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"bio": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"fee": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"availability": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"working_days": bson.M{
						"bsonType": "array",
						"items": bson.M{
							"bsonType": "string",
							"enum": []string{
								"Sunday", "Monday", "Tuesday", "Wednesday",
								"Thursday", "Friday", "Saturday",
							},
						},
					},
					"start_time": bson.M{
						"bsonType": "string",
						"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
					},
					"end_time": bson.M{
						"bsonType": "string",
						"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
					},
					"slot_duration_min": bson.M{
						"bsonType": "int",
						"minimum":  5,
						"maximum":  480,
					},
				},
			},

			"rating_average": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
				"maximum":  5,
			},

			"rating_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
