package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ActiveStatuses are the states that hold a slot. Completed and cancelled
// appointments release it.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// Rating is a client's review of a completed appointment. IsRated gates
// inclusion in the provider's aggregate.
type Rating struct {
	Score    int       `json:"score" bson:"score" validate:"required,min=1,max=5"`
	Feedback string    `json:"feedback,omitempty" bson:"feedback" validate:"omitempty,max=2000"`
	IsRated  bool      `json:"is_rated" bson:"is_rated"`
	GivenAt  time.Time `json:"given_at,omitempty" bson:"given_at" validate:"omitempty"`
}

type Appointment struct {
	ID         string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ProviderID string `json:"provider_id" bson:"provider_id" validate:"required,mongodb"`
	ClientID   string `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	// Date is a calendar day (YYYY-MM-DD); Time is a clock string in either
	// the 24-hour or 12-hour form. Conflict checks match both forms.
	Date   string  `json:"date" bson:"date" validate:"required,calendar_date"`
	Time   string  `json:"time" bson:"time" validate:"required,clock_time"`
	Status string  `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	Reason string  `json:"reason,omitempty" bson:"reason" validate:"omitempty,max=2000"`
	Fee    float64 `json:"fee" bson:"fee" validate:"min=0"`

	// Clinical fields the provider fills in while completing the visit.
	Diagnosis     string `json:"diagnosis,omitempty" bson:"diagnosis" validate:"omitempty,max=2000"`
	Prescription  string `json:"prescription,omitempty" bson:"prescription" validate:"omitempty,max=2000"`
	ProviderNotes string `json:"provider_notes,omitempty" bson:"provider_notes" validate:"omitempty,max=2000"`

	Rating *Rating `json:"rating,omitempty" bson:"rating,omitempty"`

	// VisibleToClient implements the client-side soft delete. The record
	// stays in the ledger for conflict checks and provider history.
	VisibleToClient bool `json:"visible_to_client" bson:"visible_to_client"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// StatusUpdate is the provider's transition request, optionally carrying
// clinical fields alongside the new status.
type StatusUpdate struct {
	Status        string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	Diagnosis     string `json:"diagnosis,omitempty" validate:"omitempty,max=2000"`
	Prescription  string `json:"prescription,omitempty" validate:"omitempty,max=2000"`
	ProviderNotes string `json:"provider_notes,omitempty" validate:"omitempty,max=2000"`
}

// RatingSubmission is a client's review payload.
type RatingSubmission struct {
	Score    int    `json:"score" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback,omitempty" validate:"omitempty,max=2000"`
}

// RatingAggregate is the recomputed summary stored on the provider.
type RatingAggregate struct {
	Average      float64 `json:"average" bson:"average"`
	TotalReviews int64   `json:"total_reviews" bson:"total_reviews"`
}

// Review is the public projection of a rated appointment.
type Review struct {
	AppointmentID string    `json:"appointment_id"`
	ClientID      string    `json:"client_id"`
	Score         int       `json:"score"`
	Feedback      string    `json:"feedback,omitempty"`
	GivenAt       time.Time `json:"given_at"`
}
