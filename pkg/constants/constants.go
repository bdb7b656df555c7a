// Package constants defines system-wide constants for the ringbridge service.
package constants

import "time"

// SessionStatus represents the lifecycle status of a device pairing session.
type SessionStatus string

const (
	// SessionStatusPending indicates the pairing has been issued but not yet authorized.
	SessionStatusPending SessionStatus = "pending"

	// SessionStatusAuthorized indicates the human completed the login and the
	// pairing carries a verified identity. Terminal and stable.
	SessionStatusAuthorized SessionStatus = "authorized"

	// SessionStatusExpired indicates the pairing outlived its TTL without being authorized.
	SessionStatusExpired SessionStatus = "expired"
)

// LoginStatus is the resolution of a brokered CLI login attempt.
type LoginStatus string

const (
	// LoginStatusOK indicates the CLI yielded a refresh credential without a 2FA detour.
	LoginStatusOK LoginStatus = "ok"

	// LoginStatusTwoFactorRequired indicates the CLI is waiting for a one-time
	// code; the credential arrives out-of-band after SubmitCode.
	LoginStatusTwoFactorRequired LoginStatus = "2fa-required"

	// LoginStatusError indicates the CLI exited or misbehaved before yielding a credential.
	LoginStatusError LoginStatus = "error"
)

// PromptStep tracks which interactive prompt of the login CLI has been satisfied.
type PromptStep int

const (
	// StepAwaitingIdentityPrompt means the email prompt has not been seen yet.
	StepAwaitingIdentityPrompt PromptStep = iota

	// StepAwaitingSecretPrompt means the email was fed and the password prompt is next.
	StepAwaitingSecretPrompt

	// StepAwaitingCodeOrResult means credentials were fed; the next event is a
	// 2FA challenge, a refresh credential, or process exit.
	StepAwaitingCodeOrResult
)

// ContextKey is a typed key for request-scoped context values.
type ContextKey string

const (
	// ContextKeyRequestID carries the per-request correlation ID.
	ContextKeyRequestID ContextKey = "request_id"
)

const (
	// DefaultDeviceSessionTTL is the pairing session lifetime when unconfigured.
	DefaultDeviceSessionTTL = 180 * time.Second

	// DefaultPollInterval is the suggested seconds between device polls.
	DefaultPollInterval = 3 * time.Second

	// DefaultLoginTimeout bounds a single brokered CLI login attempt.
	DefaultLoginTimeout = 5 * time.Minute

	// UserCodeAlphabet excludes visually confusable characters (no I, O, 0, 1).
	UserCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// RingTokensCollection is the Mongo collection holding persisted refresh credentials.
	RingTokensCollection = "ring_tokens"
)
