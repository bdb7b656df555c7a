// Package models defines the domain models for the ringbridge service.
package models

import (
	"time"

	"ringbridge/pkg/constants"
)

// DeviceSession represents one device pairing: the watch holds the secret
// DeviceCode and polls; the human types the short UserCode into the phone
// page. Status only ever moves pending → authorized or pending → expired.
type DeviceSession struct {
	// DeviceCode is the opaque secret identifier given only to the initiating device.
	DeviceCode string `json:"device_code"`

	// UserCode is the short human-typeable code shown to the user, unique
	// among all non-expired sessions.
	UserCode string `json:"user_code"`

	// Status is the current pairing state.
	Status constants.SessionStatus `json:"status"`

	// Identity is the verified account identifier, set only on authorization.
	Identity string `json:"identity,omitempty"`

	// OpaqueToken is a caller-supplied value passed through verbatim at
	// authorization time; this subsystem never interprets it.
	OpaqueToken string `json:"opaque_token,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// PollIntervalSec is the suggested seconds between device polls.
	PollIntervalSec int `json:"poll_interval_sec"`
}

// ExpiredAt reports whether the session's TTL has elapsed at the given instant.
func (s *DeviceSession) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Collectable reports whether the session is eligible for garbage collection.
// Authorized sessions are retained for poll consumption regardless of TTL.
func (s *DeviceSession) Collectable(now time.Time) bool {
	return s.Status != constants.SessionStatusAuthorized && s.ExpiredAt(now)
}
