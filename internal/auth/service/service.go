// Package service implements sign-up, sign-in, refresh rotation, session
// management and password reset.
package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"civic/internal/auth/metrics"
)

const (
	defaultSessionTTL      = 30 * 24 * time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultResetTokenTTL   = time.Hour
)

// Config holds the lifetimes the service issues credentials with.
type Config struct {
	SessionTTL      time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
}

func (c *Config) applyDefaults() {
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = defaultResetTokenTTL
	}
}

type Service struct {
	users         UserStore
	sessions      SessionStore
	refreshTokens RefreshTokenStore
	resetTokens   ResetTokenStore
	jwt           TokenGenerator
	mailer        Mailer
	cfg           Config
	logger        *slog.Logger
	metrics       *metrics.Metrics
	bcryptCost    int

	dummyHashOnce sync.Once
	dummyHash     []byte
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithMailer(m Mailer) Option {
	return func(s *Service) {
		s.mailer = m
	}
}

// WithBcryptCost overrides the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func New(
	users UserStore,
	sessions SessionStore,
	refreshTokens RefreshTokenStore,
	resetTokens ResetTokenStore,
	jwt TokenGenerator,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if users == nil || sessions == nil || refreshTokens == nil || resetTokens == nil {
		return nil, errors.New("users, sessions, refreshTokens and resetTokens stores are required")
	}
	if jwt == nil {
		return nil, errors.New("token generator is required")
	}
	cfg.applyDefaults()

	svc := &Service{
		users:         users,
		sessions:      sessions,
		refreshTokens: refreshTokens,
		resetTokens:   resetTokens,
		jwt:           jwt,
		cfg:           cfg,
		bcryptCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// burnPasswordCheck spends the same time as a real comparison so unknown
// emails cannot be told apart by latency.
func (s *Service) burnPasswordCheck(password string) {
	s.dummyHashOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("civic-dummy-password"), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}
