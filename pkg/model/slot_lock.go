package model

import "time"

// SlotLock is an advisory lock held while a slot claim or rating recompute
// runs. Acquisition is a unique _id insert; a TTL index on expires_at
// reaps locks orphaned by a crashed process.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
