package service

import (
	"context"
	"log/slog"
	"time"
)

const (
	eventUserCreated            = "user_created"
	eventSessionCreated         = "session_created"
	eventSessionRevoked         = "session_revoked"
	eventTokenRefreshed         = "token_refreshed"
	eventRefreshReuse           = "refresh_token_reuse"
	eventPasswordResetRequested = "password_reset_requested"
	eventPasswordReset          = "password_reset"
	eventRoleChanged            = "role_changed"
)

// logAudit records a security-relevant business event.
func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"event", event, "log_type", "audit"}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}

// authFailure logs a rejected authentication attempt and counts it by reason.
func (s *Service) authFailure(ctx context.Context, reason string, isError bool, attrs ...any) {
	if s.metrics != nil {
		s.metrics.IncrementAuthFailures(reason)
	}
	if s.logger == nil {
		return
	}
	args := append([]any{"event", "auth_failed", "reason", reason}, attrs...)
	level := slog.LevelWarn
	if isError {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "auth failed", args...)
}

func (s *Service) observeSignIn(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSignIn(time.Since(start).Seconds())
	}
}
