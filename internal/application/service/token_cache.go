// Package service provides the application-level services: the device
// pairing session manager, the credential broker, the token cache, and the
// downstream intercom consumer.
package service

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"ringbridge/internal/domain/models"
	"ringbridge/internal/domain/repository"
	"ringbridge/pkg/logger"
)

// TokenCache is the in-memory identifier → refresh credential map, mirrored
// 1:1 with the persisted ring_tokens collection. The cache serves reads; the
// repository provides durability across restarts. Writes go through to the
// repository before they are considered complete.
type TokenCache struct {
	store  *gocache.Cache
	repo   repository.RingTokenRepository
	logger logger.Logger
}

// NewTokenCache creates an empty cache backed by the given repository.
func NewTokenCache(repo repository.RingTokenRepository, log logger.Logger) *TokenCache {
	return &TokenCache{
		store:  gocache.New(gocache.NoExpiration, 0),
		repo:   repo,
		logger: log.WithComponent("token_cache"),
	}
}

// WarmLoad atomically replaces the cache contents with a snapshot of the
// repository. Called once at startup.
func (c *TokenCache) WarmLoad(ctx context.Context) error {
	tokens, err := c.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	entries := make(map[string]gocache.Item, len(tokens))
	for _, t := range tokens {
		if t.Email == "" || t.RefreshToken == "" {
			continue
		}
		entries[t.Email] = gocache.Item{Object: t.RefreshToken}
	}

	// Flush+Load under go-cache would not be atomic; rebuilding from items is.
	c.store = gocache.NewFrom(gocache.NoExpiration, 0, entries)

	c.logger.Info(ctx, "Token cache warm-loaded from repository",
		logger.Int("entries", len(entries)))
	return nil
}

// Get returns the cached refresh credential for an email, if present.
func (c *TokenCache) Get(email string) (string, bool) {
	v, ok := c.store.Get(email)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Has reports whether a credential is cached for the email.
func (c *TokenCache) Has(email string) bool {
	_, ok := c.store.Get(email)
	return ok
}

// Set writes the credential through to the repository and then updates the
// cache. A repository failure leaves the cache untouched and is returned to
// the caller to classify.
func (c *TokenCache) Set(ctx context.Context, email, refreshToken string) error {
	if err := c.repo.Upsert(ctx, email, refreshToken); err != nil {
		return err
	}
	c.store.Set(email, refreshToken, gocache.NoExpiration)
	return nil
}

// Delete removes the credential from the repository and the cache.
func (c *TokenCache) Delete(ctx context.Context, email string) error {
	if err := c.repo.Delete(ctx, email); err != nil {
		return err
	}
	c.store.Delete(email)
	return nil
}

// Snapshot returns a copy of the cache contents as persisted records, for
// diagnostics. Credentials are included; do not expose it on a public surface.
func (c *TokenCache) Snapshot() []models.RingToken {
	items := c.store.Items()
	out := make([]models.RingToken, 0, len(items))
	for email, item := range items {
		out = append(out, models.RingToken{Email: email, RefreshToken: item.Object.(string)})
	}
	return out
}
