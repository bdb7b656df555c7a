package service

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"ringbridge/internal/application/dto"
	"ringbridge/internal/config"
	"ringbridge/internal/domain/models"
	"ringbridge/internal/infrastructure/monitoring"
	"ringbridge/pkg/constants"
	"ringbridge/pkg/errors"
	"ringbridge/pkg/logger"
	"ringbridge/pkg/utils"
)

// DeviceSessionService owns the device/user code pairing table. It binds a
// verified identity, handed to it by the HTTP layer, to a pairing code; it
// never verifies credentials itself.
type DeviceSessionService interface {
	// Start issues a new pending pairing session. baseURL, when non-empty,
	// overrides the configured public base URL for building auth_url.
	Start(ctx context.Context, baseURL string) (*dto.DeviceStartResponse, error)

	// Poll reports the state of a pairing by its device code. Unknown codes
	// yield not_found; expired pending sessions flip to expired and yield an
	// expired error. Polling an authorized session is repeatable.
	Poll(ctx context.Context, deviceCode string) (*dto.DevicePollResult, error)

	// Authorize transitions the session identified by userCode to authorized,
	// binding the identity and the pass-through token. Re-authorizing an
	// already-authorized session is a no-op success.
	Authorize(ctx context.Context, userCode, identity, opaqueToken string) error

	// Sweep removes every expired, never-authorized session. It also runs
	// lazily at the start of every operation; this entry point exists for the
	// background scheduler.
	Sweep()
}

type deviceSessionService struct {
	mu       sync.Mutex
	byDevice map[string]*models.DeviceSession
	byUser   map[string]string // user code -> device code

	ttl      time.Duration
	interval time.Duration
	baseURL  string

	now func() time.Time

	metrics *monitoring.Metrics
	logger  logger.Logger
}

// NewDeviceSessionService creates the pairing session manager.
func NewDeviceSessionService(cfg *config.Config, metrics *monitoring.Metrics, log logger.Logger) DeviceSessionService {
	return &deviceSessionService{
		byDevice: make(map[string]*models.DeviceSession),
		byUser:   make(map[string]string),
		ttl:      cfg.DeviceAuth.TTL(),
		interval: time.Duration(cfg.DeviceAuth.IntervalSec) * time.Second,
		baseURL:  cfg.Server.PublicBaseURL,
		now:      time.Now,
		metrics:  metrics,
		logger:   log.WithComponent("device_session"),
	}
}

// Start issues a fresh pending session. The user code is regenerated until it
// does not collide with any live session; the preceding gc sweep makes sure
// already-expired codes do not count as collisions.
func (s *deviceSessionService) Start(ctx context.Context, baseURL string) (*dto.DeviceStartResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()

	userCode, err := utils.GenerateUserCode()
	if err != nil {
		return nil, errors.ErrServerError("failed to generate user code").WithCause(err)
	}
	for {
		if _, taken := s.byUser[userCode]; !taken {
			break
		}
		if userCode, err = utils.GenerateUserCode(); err != nil {
			return nil, errors.ErrServerError("failed to generate user code").WithCause(err)
		}
	}

	now := s.now()
	session := &models.DeviceSession{
		DeviceCode:      uuid.NewString(),
		UserCode:        userCode,
		Status:          constants.SessionStatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
		PollIntervalSec: int(s.interval.Seconds()),
	}
	s.byDevice[session.DeviceCode] = session
	s.byUser[session.UserCode] = session.DeviceCode

	if s.metrics != nil {
		s.metrics.DeviceSessionsStarted.Inc()
	}
	s.logger.Info(ctx, "Device pairing session started",
		logger.String("user_code", session.UserCode),
		logger.Int("expires_in", int(s.ttl.Seconds())))

	return &dto.DeviceStartResponse{
		DeviceCode: session.DeviceCode,
		UserCode:   session.UserCode,
		AuthURL:    s.authURL(baseURL, session.UserCode),
		ExpiresIn:  int(s.ttl.Seconds()),
		Interval:   session.PollIntervalSec,
	}, nil
}

// Poll reports the pairing state to the device.
func (s *deviceSessionService) Poll(ctx context.Context, deviceCode string) (*dto.DevicePollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()

	session, ok := s.byDevice[deviceCode]
	if !ok {
		return nil, errors.ErrNotFound("not_found")
	}

	if session.ExpiredAt(s.now()) && session.Status != constants.SessionStatusAuthorized {
		session.Status = constants.SessionStatusExpired
		if s.metrics != nil {
			s.metrics.DeviceSessionsExpired.Inc()
		}
		return nil, errors.ErrExpired("expired")
	}

	switch session.Status {
	case constants.SessionStatusPending:
		return &dto.DevicePollResult{Status: "pending"}, nil
	case constants.SessionStatusAuthorized:
		return &dto.DevicePollResult{
			Status: "ok",
			Email:  session.Identity,
			Token:  session.OpaqueToken,
		}, nil
	default:
		return nil, errors.ErrExpired("expired")
	}
}

// Authorize binds the verified identity to the session named by userCode.
func (s *deviceSessionService) Authorize(ctx context.Context, userCode, identity, opaqueToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()

	deviceCode, ok := s.byUser[utils.NormalizeUserCode(userCode)]
	if !ok {
		return errors.ErrInvalidCode("invalid_code")
	}
	session, ok := s.byDevice[deviceCode]
	if !ok {
		return errors.ErrInvalidCode("invalid_code")
	}

	if session.ExpiredAt(s.now()) && session.Status != constants.SessionStatusAuthorized {
		return errors.ErrExpired("expired")
	}

	// Idempotent: the first authorization wins, repeats succeed untouched.
	if session.Status == constants.SessionStatusAuthorized {
		return nil
	}

	session.Status = constants.SessionStatusAuthorized
	session.Identity = identity
	session.OpaqueToken = opaqueToken

	if s.metrics != nil {
		s.metrics.DeviceSessionsAuthorized.Inc()
	}
	s.logger.Info(ctx, "Device pairing session authorized",
		logger.String("user_code", session.UserCode),
		logger.String("identity", identity))
	return nil
}

// Sweep removes expired, never-authorized sessions.
func (s *deviceSessionService) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked()
}

// gcLocked removes collectable sessions. Caller holds s.mu.
func (s *deviceSessionService) gcLocked() {
	now := s.now()
	for deviceCode, session := range s.byDevice {
		if session.Collectable(now) {
			delete(s.byDevice, deviceCode)
			delete(s.byUser, session.UserCode)
		}
	}
}

// authURL builds the pairing page URL shown to the human.
func (s *deviceSessionService) authURL(baseURL, userCode string) string {
	base := baseURL
	if base == "" {
		base = s.baseURL
	}
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/pair?code=" + url.QueryEscape(userCode)
}
