package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for auth operations.
type Metrics struct {
	UsersCreated      prometheus.Counter
	SessionsCreated   prometheus.Counter
	SessionsRevoked   prometheus.Counter
	TokenRefreshes    prometheus.Counter
	AuthFailures      *prometheus.CounterVec
	RefreshReuse      prometheus.Counter
	PasswordResets    prometheus.Counter
	CleanupDeletions  *prometheus.CounterVec
	SignInDurationSec prometheus.Histogram
}

// New registers auth collectors with reg, or the default registry when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_users_created_total",
			Help: "Total number of users created",
		}),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_sessions_created_total",
			Help: "Total number of sessions created by sign-up or sign-in",
		}),
		SessionsRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_sessions_revoked_total",
			Help: "Total number of sessions revoked",
		}),
		TokenRefreshes: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_token_refreshes_total",
			Help: "Total number of successful refresh token rotations",
		}),
		AuthFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_auth_failures_total",
			Help: "Authentication failures by reason",
		}, []string{"reason"}),
		RefreshReuse: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_refresh_token_reuse_total",
			Help: "Refresh tokens presented after they were already used",
		}),
		PasswordResets: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_password_resets_total",
			Help: "Completed password resets",
		}),
		CleanupDeletions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_auth_cleanup_deleted_total",
			Help: "Rows removed by the auth cleanup worker",
		}, []string{"kind"}),
		SignInDurationSec: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "civic_sign_in_duration_seconds",
			Help:    "Sign-in latency including password hashing",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementUsersCreated()    { m.UsersCreated.Inc() }
func (m *Metrics) IncrementSessionsCreated() { m.SessionsCreated.Inc() }
func (m *Metrics) AddSessionsRevoked(n int)  { m.SessionsRevoked.Add(float64(n)) }
func (m *Metrics) IncrementTokenRefreshes()  { m.TokenRefreshes.Inc() }
func (m *Metrics) IncrementRefreshReuse()    { m.RefreshReuse.Inc() }
func (m *Metrics) IncrementPasswordResets()  { m.PasswordResets.Inc() }

func (m *Metrics) ObserveSignIn(seconds float64) {
	m.SignInDurationSec.Observe(seconds)
}

func (m *Metrics) IncrementAuthFailures(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddCleanupDeletions(kind string, n int) {
	if n > 0 {
		m.CleanupDeletions.WithLabelValues(kind).Add(float64(n))
	}
}
