package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringbridge/internal/domain/models"
	"ringbridge/pkg/logger"
)

// fakeTokenRepo is an in-memory RingTokenRepository for cache tests.
type fakeTokenRepo struct {
	mu      sync.Mutex
	records map[string]models.RingToken
	failing bool

	upserts int
	deletes int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{records: make(map[string]models.RingToken)}
}

func (r *fakeTokenRepo) LoadAll(ctx context.Context) ([]models.RingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, fmt.Errorf("repository unavailable")
	}
	out := make([]models.RingToken, 0, len(r.records))
	for _, t := range r.records {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTokenRepo) Upsert(ctx context.Context, email, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return fmt.Errorf("repository unavailable")
	}
	r.upserts++
	rec, ok := r.records[email]
	if !ok {
		rec = models.RingToken{Email: email, CreatedAt: time.Now()}
	}
	rec.RefreshToken = refreshToken
	rec.UpdatedAt = time.Now()
	r.records[email] = rec
	return nil
}

func (r *fakeTokenRepo) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return fmt.Errorf("repository unavailable")
	}
	r.deletes++
	delete(r.records, email)
	return nil
}

func TestTokenCacheWarmLoad(t *testing.T) {
	repo := newFakeTokenRepo()
	repo.records["a@example.com"] = models.RingToken{Email: "a@example.com", RefreshToken: "tok-a"}
	repo.records["b@example.com"] = models.RingToken{Email: "b@example.com", RefreshToken: "tok-b"}
	repo.records["broken@example.com"] = models.RingToken{Email: "broken@example.com"}

	cache := NewTokenCache(repo, logger.NewNoopLogger())
	require.NoError(t, cache.WarmLoad(context.Background()))

	got, ok := cache.Get("a@example.com")
	assert.True(t, ok)
	assert.Equal(t, "tok-a", got)
	assert.True(t, cache.Has("b@example.com"))
	assert.False(t, cache.Has("broken@example.com"), "records without a credential are skipped")
}

func TestTokenCacheWarmLoad_RepoFailure(t *testing.T) {
	repo := newFakeTokenRepo()
	repo.failing = true

	cache := NewTokenCache(repo, logger.NewNoopLogger())
	assert.Error(t, cache.WarmLoad(context.Background()))
}

func TestTokenCacheSet_WritesThrough(t *testing.T) {
	repo := newFakeTokenRepo()
	cache := NewTokenCache(repo, logger.NewNoopLogger())

	require.NoError(t, cache.Set(context.Background(), "a@example.com", "tok-1"))
	assert.Equal(t, 1, repo.upserts)
	assert.True(t, cache.Has("a@example.com"))

	// Re-login replaces the credential in place.
	require.NoError(t, cache.Set(context.Background(), "a@example.com", "tok-2"))
	got, _ := cache.Get("a@example.com")
	assert.Equal(t, "tok-2", got)
	assert.Equal(t, "tok-2", repo.records["a@example.com"].RefreshToken)
}

func TestTokenCacheSet_RepoFailureLeavesCacheUntouched(t *testing.T) {
	repo := newFakeTokenRepo()
	cache := NewTokenCache(repo, logger.NewNoopLogger())
	repo.failing = true

	assert.Error(t, cache.Set(context.Background(), "a@example.com", "tok-1"))
	assert.False(t, cache.Has("a@example.com"))
}

func TestTokenCacheDelete(t *testing.T) {
	repo := newFakeTokenRepo()
	cache := NewTokenCache(repo, logger.NewNoopLogger())

	require.NoError(t, cache.Set(context.Background(), "a@example.com", "tok-1"))
	require.NoError(t, cache.Delete(context.Background(), "a@example.com"))
	assert.False(t, cache.Has("a@example.com"))
	assert.Empty(t, repo.records)
}

func TestTokenCacheSnapshot(t *testing.T) {
	repo := newFakeTokenRepo()
	cache := NewTokenCache(repo, logger.NewNoopLogger())

	require.NoError(t, cache.Set(context.Background(), "a@example.com", "tok-1"))
	snap := cache.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "a@example.com", snap[0].Email)
	assert.Equal(t, "tok-1", snap[0].RefreshToken)
}
