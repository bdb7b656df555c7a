package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringbridge/internal/config"
	"ringbridge/pkg/errors"
	"ringbridge/pkg/logger"
	"ringbridge/pkg/utils"
)

func newSessionServiceForTest(t *testing.T) (*deviceSessionService, *time.Time) {
	t.Helper()
	cfg := &config.Config{}
	cfg.DeviceAuth.ExpiresInSec = 180
	cfg.DeviceAuth.IntervalSec = 3
	cfg.Server.PublicBaseURL = "http://pair.local"

	svc := NewDeviceSessionService(cfg, nil, logger.NewNoopLogger()).(*deviceSessionService)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestDeviceSessionStart(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.DeviceCode)
	assert.True(t, utils.IsWellFormedUserCode(resp.UserCode))
	assert.Equal(t, "http://pair.local/pair?code="+resp.UserCode, resp.AuthURL)
	assert.Equal(t, 180, resp.ExpiresIn)
	assert.Equal(t, 3, resp.Interval)
}

func TestDeviceSessionStart_ForwardedBaseURLWins(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "https://bridge.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://bridge.example.com/pair?code="+resp.UserCode, resp.AuthURL)
}

func TestDeviceSessionStart_UniqueCodes(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	seenUser := map[string]bool{}
	seenDevice := map[string]bool{}
	for i := 0; i < 50; i++ {
		resp, err := svc.Start(context.Background(), "")
		require.NoError(t, err)
		assert.False(t, seenUser[resp.UserCode], "user code %q reissued while live", resp.UserCode)
		assert.False(t, seenDevice[resp.DeviceCode])
		seenUser[resp.UserCode] = true
		seenDevice[resp.DeviceCode] = true
	}
}

func TestDeviceSessionPoll_Pending(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	result, err := svc.Poll(context.Background(), resp.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, "pending", result.Status)
	assert.Empty(t, result.Email)
}

func TestDeviceSessionPoll_UnknownCode(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	_, err := svc.Poll(context.Background(), "never-issued")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestDeviceSessionAuthorizeThenPoll(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	err = svc.Authorize(context.Background(), resp.UserCode, "user@example.com", "opaque-123")
	require.NoError(t, err)

	result, err := svc.Poll(context.Background(), resp.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "user@example.com", result.Email)
	assert.Equal(t, "opaque-123", result.Token)

	// Polling an authorized session stays repeatable.
	again, err := svc.Poll(context.Background(), resp.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, "ok", again.Status)
}

func TestDeviceSessionAuthorize_NormalizesUserCode(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	lowered := "  " + resp.UserCode + " "
	err = svc.Authorize(context.Background(), lowered, "user@example.com", "")
	require.NoError(t, err)
}

func TestDeviceSessionAuthorize_Idempotent(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, svc.Authorize(context.Background(), resp.UserCode, "first@example.com", "tok-1"))
	require.NoError(t, svc.Authorize(context.Background(), resp.UserCode, "second@example.com", "tok-2"))

	result, err := svc.Poll(context.Background(), resp.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", result.Email, "first authorization wins")
	assert.Equal(t, "tok-1", result.Token)
}

func TestDeviceSessionAuthorize_UnknownUserCode(t *testing.T) {
	svc, _ := newSessionServiceForTest(t)

	err := svc.Authorize(context.Background(), "ZZZZ-99", "user@example.com", "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidCode, errors.CodeOf(err))
}

func TestDeviceSessionExpiry(t *testing.T) {
	svc, now := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	*now = now.Add(181 * time.Second)

	// First poll past the TTL reports expired.
	_, err = svc.Poll(context.Background(), resp.DeviceCode)
	require.Error(t, err)
	assert.Equal(t, errors.CodeExpired, errors.CodeOf(err))

	// The lazy GC then collects it; the code is gone entirely.
	_, err = svc.Poll(context.Background(), resp.DeviceCode)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))

	err = svc.Authorize(context.Background(), resp.UserCode, "late@example.com", "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidCode, errors.CodeOf(err))
}

func TestDeviceSessionExpiry_AuthorizedExemptFromGC(t *testing.T) {
	svc, now := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, svc.Authorize(context.Background(), resp.UserCode, "user@example.com", "tok"))

	*now = now.Add(time.Hour)
	svc.Sweep()

	result, err := svc.Poll(context.Background(), resp.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
}

func TestDeviceSessionSweep_RemovesExpiredPending(t *testing.T) {
	svc, now := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	*now = now.Add(time.Hour)
	svc.Sweep()

	svc.mu.Lock()
	_, stillThere := svc.byDevice[resp.DeviceCode]
	_, codeStillMapped := svc.byUser[resp.UserCode]
	svc.mu.Unlock()
	assert.False(t, stillThere)
	assert.False(t, codeStillMapped)
}

func TestDeviceSessionExpiry_UserCodeReusableAfterGC(t *testing.T) {
	svc, now := newSessionServiceForTest(t)

	resp, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	*now = now.Add(time.Hour)
	svc.Sweep()

	// Reinsert the same user code by hand to prove the mapping was freed.
	svc.mu.Lock()
	_, taken := svc.byUser[resp.UserCode]
	svc.mu.Unlock()
	assert.False(t, taken)
}
