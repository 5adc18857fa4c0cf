package model

import (
	"time"
)

// Availability is a provider's weekly working pattern. Zero-valued fields
// fall back to portal defaults when the provider is created.
type Availability struct {
	WorkingDays     []string `json:"working_days,omitempty" bson:"working_days" validate:"omitempty,min=1,max=7,dive,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	StartTime       string   `json:"start_time,omitempty" bson:"start_time" validate:"omitempty,time_of_day"`
	EndTime         string   `json:"end_time,omitempty" bson:"end_time" validate:"omitempty,time_of_day"`
	SlotDurationMin int      `json:"slot_duration_min,omitempty" bson:"slot_duration_min" validate:"omitempty,min=5,max=480"`
}

type Provider struct {
	ID            string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name          string       `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email         string       `json:"email" bson:"email" validate:"required,email"`
	Phone         string       `json:"phone,omitempty" bson:"phone" validate:"omitempty,e164"`
	Specialty     string       `json:"specialty" bson:"specialty" validate:"required,min=2,max=100"`
	Bio           string       `json:"bio,omitempty" bson:"bio" validate:"omitempty,max=2000"`
	Fee           float64      `json:"fee" bson:"fee" validate:"min=0"`
	Availability  Availability `json:"availability" bson:"availability"`
	RatingAverage float64      `json:"rating_average" bson:"rating_average" validate:"min=0,max=5"`
	RatingCount   int64        `json:"rating_count" bson:"rating_count" validate:"min=0"`
	Active        bool         `json:"active" bson:"active"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// AvailabilityUpdate carries a partial schedule/fee change. Nil or empty
// fields are left untouched.
type AvailabilityUpdate struct {
	WorkingDays     []string `json:"working_days,omitempty" validate:"omitempty,min=1,max=7,dive,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	StartTime       string   `json:"start_time,omitempty" validate:"omitempty,time_of_day"`
	EndTime         string   `json:"end_time,omitempty" validate:"omitempty,time_of_day"`
	SlotDurationMin *int     `json:"slot_duration_min,omitempty" validate:"omitempty,min=5,max=480"`
	Fee             *float64 `json:"fee,omitempty" validate:"omitempty,min=0"`
}
