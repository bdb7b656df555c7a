package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	DeviceSessionsStarted    prometheus.Counter
	DeviceSessionsAuthorized prometheus.Counter
	DeviceSessionsExpired    prometheus.Counter
	LoginAttempts            *prometheus.CounterVec
	TwoFactorSubmissions     *prometheus.CounterVec
	UnlockRequests           *prometheus.CounterVec
}

// NewMetrics creates and registers the Prometheus metrics against the given
// registerer. Pass prometheus.DefaultRegisterer in production; tests use a
// private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DeviceSessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ringbridge_device_sessions_started_total",
			Help: "Total number of device pairing sessions started.",
		}),
		DeviceSessionsAuthorized: factory.NewCounter(prometheus.CounterOpts{
			Name: "ringbridge_device_sessions_authorized_total",
			Help: "Total number of device pairing sessions authorized.",
		}),
		DeviceSessionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "ringbridge_device_sessions_expired_total",
			Help: "Total number of device pairing sessions that expired before authorization.",
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbridge_login_attempts_total",
			Help: "Total number of brokered CLI login attempts by resolution.",
		}, []string{"result"}),
		TwoFactorSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbridge_twofa_submissions_total",
			Help: "Total number of one-time-code submissions by delivery outcome.",
		}, []string{"delivered"}),
		UnlockRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ringbridge_unlock_requests_total",
			Help: "Total number of downstream unlock requests by result.",
		}, []string{"result"}),
	}
}

// RecordLoginAttempt records the resolution of a login attempt.
func (m *Metrics) RecordLoginAttempt(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// RecordTwoFactorSubmission records whether a submitted code reached a live attempt.
func (m *Metrics) RecordTwoFactorSubmission(delivered bool) {
	if delivered {
		m.TwoFactorSubmissions.WithLabelValues("true").Inc()
	} else {
		m.TwoFactorSubmissions.WithLabelValues("false").Inc()
	}
}
