// Package repository defines the persistence boundaries of the domain.
package repository

import (
	"context"

	"ringbridge/internal/domain/models"
)

// RingTokenRepository is the durable store for refresh credentials. The
// in-memory token cache is the fast path; this repository is what survives
// restarts.
type RingTokenRepository interface {
	// LoadAll returns every persisted credential record, used to warm-load
	// the cache at startup.
	LoadAll(ctx context.Context) ([]models.RingToken, error)

	// Upsert inserts the record if absent, otherwise updates RefreshToken and
	// UpdatedAt while preserving the original CreatedAt.
	Upsert(ctx context.Context, email, refreshToken string) error

	// Delete removes the record for the given email. Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, email string) error
}
