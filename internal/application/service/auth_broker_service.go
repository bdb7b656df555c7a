package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"ringbridge/internal/config"
	domainservice "ringbridge/internal/domain/service"
	"ringbridge/internal/infrastructure/monitoring"
	"ringbridge/pkg/constants"
	"ringbridge/pkg/errors"
	"ringbridge/pkg/logger"
)

// Output patterns recognized in the login tool's stdout. The tool is driven
// by string-matching an unstructured stream, so the set is deliberately
// small and enumerated here.
const (
	identityPrompt  = "Email:"
	secretPrompt    = "Password:"
	twoFactorPrompt = "Please enter the code sent"
)

// refreshTokenPattern matches the credential line the tool prints on success.
var refreshTokenPattern = regexp.MustCompile(`"refreshToken":\s*"([^"]+)"`)

// AuthBrokerService drives the external interactive login tool through its
// prompt sequence, correlates one-time-code submissions with the in-flight
// process, and writes extracted refresh credentials through the token cache.
type AuthBrokerService interface {
	// Login starts one login attempt for the identifier. It resolves exactly
	// once: 2fa-required as soon as a code challenge is detected, ok once the
	// credential appears without a challenge, or error. When 2fa-required is
	// returned the credential still lands in the cache out-of-band after
	// SubmitCode. A second Login for an identifier already in flight is
	// rejected rather than orphaning the first process.
	Login(ctx context.Context, email, password string) (constants.LoginStatus, error)

	// SubmitCode delivers a one-time code to the attempt waiting on it. A
	// code for an identifier with no outstanding challenge is a logged no-op;
	// the return value reports whether the code reached a live process.
	SubmitCode(ctx context.Context, email, code string) bool

	// RefreshCredential returns the cached refresh credential, if any.
	RefreshCredential(email string) (string, bool)

	// IsAuthenticated reports whether a credential is cached for the identifier.
	IsAuthenticated(email string) bool

	// Revoke removes the credential from cache and repository.
	Revoke(ctx context.Context, email string) error
}

type authBrokerService struct {
	mu       sync.Mutex
	attempts map[string]*loginAttempt

	launcher     domainservice.LoginLauncher
	cache        *TokenCache
	loginTimeout time.Duration
	metrics      *monitoring.Metrics
	logger       logger.Logger
}

// NewAuthBrokerService creates the credential broker.
func NewAuthBrokerService(
	launcher domainservice.LoginLauncher,
	cache *TokenCache,
	cfg *config.Config,
	metrics *monitoring.Metrics,
	log logger.Logger,
) AuthBrokerService {
	timeout := cfg.RingCLI.LoginTimeout()
	if timeout <= 0 {
		timeout = constants.DefaultLoginTimeout
	}
	return &authBrokerService{
		attempts:     make(map[string]*loginAttempt),
		launcher:     launcher,
		cache:        cache,
		loginTimeout: timeout,
		metrics:      metrics,
		logger:       log.WithComponent("auth_broker"),
	}
}

// loginAttempt tracks one live login process. The stdout consumer goroutine
// is the only writer of step and twoFactor; codeCh is guarded by mu because
// SubmitCode races with challenge registration.
type loginAttempt struct {
	email    string
	password string
	process  domainservice.LoginProcess

	step      constants.PromptStep
	twoFactor bool

	mu     sync.Mutex
	codeCh chan string // non-nil only while a code challenge is outstanding

	resolveOnce sync.Once
	resultCh    chan constants.LoginStatus

	cancel context.CancelFunc
}

// resolve settles the caller's Login exactly once.
func (a *loginAttempt) resolve(status constants.LoginStatus) bool {
	settled := false
	a.resolveOnce.Do(func() {
		a.resultCh <- status
		settled = true
	})
	return settled
}

// registerCodeSink installs the one-shot code channel. Returns false if a
// challenge was already outstanding.
func (a *loginAttempt) registerCodeSink() (chan string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.codeCh != nil {
		return nil, false
	}
	a.codeCh = make(chan string, 1)
	return a.codeCh, true
}

// deliverCode hands a one-time code to the outstanding challenge, if any.
// The channel is buffered for exactly one code; repeats are dropped.
func (a *loginAttempt) deliverCode(code string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.codeCh == nil {
		return false
	}
	select {
	case a.codeCh <- code:
		// The sink is spent; repeats find no outstanding challenge.
		a.codeCh = nil
		return true
	default:
		return false
	}
}

// Login starts the external login tool and suspends until the attempt
// resolves. Resolution is guaranteed: every exit path of the process run
// settles the result channel.
func (b *authBrokerService) Login(ctx context.Context, email, password string) (constants.LoginStatus, error) {
	b.mu.Lock()
	if _, inFlight := b.attempts[email]; inFlight {
		b.mu.Unlock()
		b.logger.Warn(ctx, "Rejected concurrent login for identifier already in flight",
			logger.String("email", email))
		return constants.LoginStatusError, errors.ErrLoginInFlight(email)
	}

	// The attempt outlives the HTTP request: on the 2FA path the credential
	// arrives after Login has already returned. Detach from the caller's
	// context and bound the whole attempt instead.
	attemptCtx, cancel := context.WithTimeout(context.Background(), b.loginTimeout)

	process, err := b.launcher.Launch(attemptCtx)
	if err != nil {
		b.mu.Unlock()
		cancel()
		b.recordResult(constants.LoginStatusError)
		return constants.LoginStatusError, errors.ErrServerError("failed to start login tool").WithCause(err)
	}

	attempt := &loginAttempt{
		email:    email,
		password: password,
		process:  process,
		step:     constants.StepAwaitingIdentityPrompt,
		resultCh: make(chan constants.LoginStatus, 1),
		cancel:   cancel,
	}
	b.attempts[email] = attempt
	b.mu.Unlock()

	b.logger.Info(ctx, "Starting login via Ring CLI", logger.String("email", email))

	go b.consumeStdout(attemptCtx, attempt)
	go b.drainStderr(attemptCtx, attempt)
	go b.watchTimeout(attemptCtx, attempt)
	go b.awaitExit(attempt)

	status := <-attempt.resultCh
	b.recordResult(status)
	return status, nil
}

// SubmitCode forwards a one-time code to the attempt's process input stream.
func (b *authBrokerService) SubmitCode(ctx context.Context, email, code string) bool {
	b.mu.Lock()
	attempt := b.attempts[email]
	b.mu.Unlock()

	delivered := attempt != nil && attempt.deliverCode(code)
	if !delivered {
		// Already completed, never started, or the process exited.
		b.logger.Warn(ctx, "No outstanding code challenge for identifier",
			logger.String("email", email))
	}
	if b.metrics != nil {
		b.metrics.RecordTwoFactorSubmission(delivered)
	}
	return delivered
}

// RefreshCredential returns the cached refresh credential.
func (b *authBrokerService) RefreshCredential(email string) (string, bool) {
	return b.cache.Get(email)
}

// IsAuthenticated reports whether a credential is cached.
func (b *authBrokerService) IsAuthenticated(email string) bool {
	return b.cache.Has(email)
}

// Revoke removes the credential from cache and repository.
func (b *authBrokerService) Revoke(ctx context.Context, email string) error {
	return b.cache.Delete(ctx, email)
}

// consumeStdout reads the process output as chunk events and advances the
// prompt state machine.
func (b *authBrokerService) consumeStdout(ctx context.Context, attempt *loginAttempt) {
	buf := make([]byte, 4096)
	for {
		n, err := attempt.process.Stdout().Read(buf)
		if n > 0 {
			b.handleOutput(ctx, attempt, string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

// handleOutput processes one chunk of stdout. Prompt matches are enforced in
// order by the step counter; duplicate or out-of-order matches are ignored
// once a step has advanced past them.
func (b *authBrokerService) handleOutput(ctx context.Context, attempt *loginAttempt, output string) {
	b.logger.Debug(ctx, "Login tool output", logger.String("email", attempt.email))

	if strings.Contains(output, identityPrompt) && attempt.step == constants.StepAwaitingIdentityPrompt {
		fmt.Fprintf(attempt.process.Stdin(), "%s\n", attempt.email)
		attempt.step = constants.StepAwaitingSecretPrompt
	} else if strings.Contains(output, secretPrompt) && attempt.step == constants.StepAwaitingSecretPrompt {
		fmt.Fprintf(attempt.process.Stdin(), "%s\n", attempt.password)
		attempt.step = constants.StepAwaitingCodeOrResult
	}

	if strings.Contains(output, twoFactorPrompt) && !attempt.twoFactor {
		attempt.twoFactor = true
		if codeCh, ok := attempt.registerCodeSink(); ok {
			go b.forwardCode(ctx, attempt, codeCh)
		}
		b.logger.Info(ctx, "Code challenge detected, waiting for submission",
			logger.String("email", attempt.email))
		attempt.resolve(constants.LoginStatusTwoFactorRequired)
	}

	if match := refreshTokenPattern.FindStringSubmatch(output); match != nil {
		b.handleCredential(ctx, attempt, match[1])
	}
}

// forwardCode waits for exactly one submitted code and writes it to the
// process input stream.
func (b *authBrokerService) forwardCode(ctx context.Context, attempt *loginAttempt, codeCh <-chan string) {
	select {
	case code := <-codeCh:
		fmt.Fprintf(attempt.process.Stdin(), "%s\n", code)
		b.logger.Info(ctx, "One-time code forwarded to login tool",
			logger.String("email", attempt.email))
	case <-ctx.Done():
	}
}

// handleCredential persists an extracted refresh credential and, on the
// no-challenge path, settles the caller with ok.
func (b *authBrokerService) handleCredential(ctx context.Context, attempt *loginAttempt, refreshToken string) {
	persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.cache.Set(persistCtx, attempt.email, refreshToken); err != nil {
		// Durability degradation only: the credential was genuinely issued,
		// so the login itself is not failed.
		b.logger.Warn(ctx, "Failed to persist refresh credential, cache-only for now",
			logger.String("email", attempt.email), logger.Err(err))
	}

	attempt.mu.Lock()
	attempt.codeCh = nil
	attempt.mu.Unlock()

	b.logger.Info(ctx, "Refresh credential captured",
		logger.String("email", attempt.email))

	if !attempt.twoFactor {
		attempt.resolve(constants.LoginStatusOK)
	}
}

// drainStderr logs diagnostic output. It is never treated as the credential.
func (b *authBrokerService) drainStderr(ctx context.Context, attempt *loginAttempt) {
	buf := make([]byte, 4096)
	for {
		n, err := attempt.process.Stderr().Read(buf)
		if n > 0 {
			b.logger.Warn(ctx, "Login tool stderr",
				logger.String("email", attempt.email),
				logger.String("output", strings.TrimSpace(string(buf[:n]))))
		}
		if err != nil {
			return
		}
	}
}

// watchTimeout kills the process when the attempt deadline passes.
func (b *authBrokerService) watchTimeout(ctx context.Context, attempt *loginAttempt) {
	<-ctx.Done()
	if ctx.Err() == context.DeadlineExceeded {
		b.logger.Warn(context.Background(), "Login attempt timed out, killing process",
			logger.String("email", attempt.email))
		_ = attempt.process.Kill()
	}
}

// awaitExit reaps the process and guarantees the caller's resolution. An exit
// before any credential appeared is a failure.
func (b *authBrokerService) awaitExit(attempt *loginAttempt) {
	exitErr := attempt.process.Wait()

	b.mu.Lock()
	if b.attempts[attempt.email] == attempt {
		delete(b.attempts, attempt.email)
	}
	b.mu.Unlock()
	attempt.cancel()

	attempt.resolve(constants.LoginStatusError)

	ctx := context.Background()
	if exitErr != nil {
		b.logger.Warn(ctx, "Login tool exited with error",
			logger.String("email", attempt.email), logger.Err(exitErr))
		return
	}
	b.logger.Info(ctx, "Login tool closed", logger.String("email", attempt.email))
}

func (b *authBrokerService) recordResult(status constants.LoginStatus) {
	if b.metrics != nil {
		b.metrics.RecordLoginAttempt(string(status))
	}
}
