package models

import "time"

// RingToken is the persisted refresh credential record, keyed uniquely by
// Email. It mirrors one entry of the in-memory token cache.
type RingToken struct {
	// Email is the account identifier and the unique key of the collection.
	Email string `bson:"email" json:"email"`

	// RefreshToken is the long-lived opaque credential extracted from the
	// login CLI output.
	RefreshToken string `bson:"refreshToken" json:"refresh_token"`

	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}
