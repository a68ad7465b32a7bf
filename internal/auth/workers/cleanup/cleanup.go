// Package cleanup removes dead auth records on an interval.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civic/internal/auth/metrics"
)

type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// RefreshTokenStore deletes refresh tokens. Used tokens are kept for a
// retention window so a replay can still be matched to its session.
type RefreshTokenStore interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
	DeleteUsedTokens(ctx context.Context, usedBefore time.Time) (int, error)
}

type ResetTokenStore interface {
	DeleteStaleTokens(ctx context.Context, now time.Time) (int, error)
}

// Result counts what one pass deleted.
type Result struct {
	Sessions             int
	ExpiredRefreshTokens int
	UsedRefreshTokens    int
	ResetTokens          int
}

func (r Result) Total() int {
	return r.Sessions + r.ExpiredRefreshTokens + r.UsedRefreshTokens + r.ResetTokens
}

type Worker struct {
	sessions      SessionStore
	refreshTokens RefreshTokenStore
	resetTokens   ResetTokenStore
	interval      time.Duration
	usedRetention time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

type Option func(*Worker)

// WithInterval overrides the pass interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithUsedTokenRetention sets how long consumed refresh tokens are kept.
func WithUsedTokenRetention(d time.Duration) Option {
	return func(w *Worker) {
		if d >= 0 {
			w.usedRetention = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

func New(sessions SessionStore, refreshTokens RefreshTokenStore, resetTokens ResetTokenStore, opts ...Option) (*Worker, error) {
	if sessions == nil || refreshTokens == nil || resetTokens == nil {
		return nil, fmt.Errorf("sessions, refreshTokens and resetTokens stores are required")
	}
	w := &Worker{
		sessions:      sessions,
		refreshTokens: refreshTokens,
		resetTokens:   resetTokens,
		interval:      5 * time.Minute,
		usedRetention: 24 * time.Hour,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start runs a pass every interval until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := w.RunOnce(ctx)
			if err != nil {
				w.logger.ErrorContext(ctx, "auth cleanup failed", "error", err)
			}
			if res.Total() > 0 {
				w.logger.InfoContext(ctx, "auth cleanup completed",
					"sessions", res.Sessions,
					"expired_refresh_tokens", res.ExpiredRefreshTokens,
					"used_refresh_tokens", res.UsedRefreshTokens,
					"reset_tokens", res.ResetTokens,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single pass. Every step runs even if an earlier one
// fails; failures are joined.
func (w *Worker) RunOnce(ctx context.Context) (Result, error) {
	now := w.now()
	var res Result

	steps := []struct {
		kind string
		run  func() (int, error)
		dst  *int
	}{
		{"sessions", func() (int, error) { return w.sessions.DeleteExpiredSessions(ctx, now) }, &res.Sessions},
		{"expired_refresh_tokens", func() (int, error) { return w.refreshTokens.DeleteExpiredTokens(ctx, now) }, &res.ExpiredRefreshTokens},
		{"used_refresh_tokens", func() (int, error) {
			return w.refreshTokens.DeleteUsedTokens(ctx, now.Add(-w.usedRetention))
		}, &res.UsedRefreshTokens},
		{"reset_tokens", func() (int, error) { return w.resetTokens.DeleteStaleTokens(ctx, now) }, &res.ResetTokens},
	}

	var errs []error
	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", step.kind, err))
			continue
		}
		*step.dst = n
		if w.metrics != nil && n > 0 {
			w.metrics.AddCleanupDeletions(step.kind, n)
		}
	}
	return res, errors.Join(errs...)
}
