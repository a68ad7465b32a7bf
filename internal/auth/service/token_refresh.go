package service

import (
	"context"
	"errors"
	"time"

	"civic/internal/auth/models"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

// Refresh rotates a refresh token: the presented token is consumed and a new
// access/refresh pair is issued for the same session. Presenting a token a
// second time revokes its session.
func (s *Service) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.AuthResult, error) {
	now := requestcontext.Now(ctx)

	record, err := s.refreshTokens.Consume(ctx, models.HashToken(req.RefreshToken), now)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) && record != nil {
			s.revokeOnReuse(ctx, record, now)
		}
		return nil, s.handleTokenError(ctx, err, record)
	}

	session, err := s.sessions.Execute(ctx, record.SessionID,
		func(sess *models.Session) error {
			if sess.UserID != record.UserID {
				return dErrors.New(dErrors.CodeInvalidGrant, "invalid refresh token")
			}
			return sess.ValidateForRefresh(now)
		},
		func(sess *models.Session) {
			sess.RecordRefresh(now)
		},
	)
	if err != nil {
		return nil, s.handleTokenError(ctx, err, record)
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, s.handleTokenError(ctx, err, record)
	}
	if !user.IsActive() {
		s.authFailure(ctx, "account_disabled", false, "user_id", user.ID.String())
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "account disabled")
	}

	result, err := s.issueTokens(ctx, user, session, now)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, eventTokenRefreshed,
		"user_id", user.ID.String(),
		"session_id", session.ID.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementTokenRefreshes()
	}
	return result, nil
}

// revokeOnReuse treats a replayed refresh token as stolen and ends its session.
func (s *Service) revokeOnReuse(ctx context.Context, record *models.RefreshTokenRecord, now time.Time) {
	if s.metrics != nil {
		s.metrics.IncrementRefreshReuse()
	}
	revoked, err := s.revokeSession(ctx, record.SessionID, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke session after refresh token reuse",
			"error", err,
			"session_id", record.SessionID.String(),
		)
		return
	}
	if revoked {
		s.logAudit(ctx, eventRefreshReuse,
			"user_id", record.UserID.String(),
			"session_id", record.SessionID.String(),
		)
	}
}
