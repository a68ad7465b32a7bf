package service

import (
	"context"
	"errors"
	"time"

	"civic/internal/auth/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

// Session returns the current session and its user's profile.
func (s *Service) Session(ctx context.Context, sessionID id.SessionID) (*models.SessionInfo, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return &models.SessionInfo{
		Session: models.NewSessionSummary(session, sessionID),
		User:    models.NewUserView(user),
	}, nil
}

// ValidateSession reports the current role of the session's user. It fails
// with CodeUnauthorized when the session is unknown, revoked or expired, or
// the account is disabled.
func (s *Service) ValidateSession(ctx context.Context, sessionID id.SessionID) (id.Role, error) {
	now := requestcontext.Now(ctx)
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.IsRevoked() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "session has been revoked")
	}
	if session.IsExpired(now) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "session expired")
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "user not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.IsActive() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "account disabled")
	}
	return user.Role, nil
}

// SignOut revokes the session. Signing out twice, or signing out a session
// that no longer exists, succeeds.
func (s *Service) SignOut(ctx context.Context, sessionID id.SessionID) error {
	now := requestcontext.Now(ctx)
	revoked, err := s.revokeSession(ctx, sessionID, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	if revoked {
		s.logAudit(ctx, eventSessionRevoked, "session_id", sessionID.String(), "reason", "sign_out")
	}
	return nil
}

// ListSessions returns the user's live sessions, flagging the current one.
func (s *Service) ListSessions(ctx context.Context, userID id.UserID, current id.SessionID) (*models.SessionsResult, error) {
	now := requestcontext.Now(ctx)
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}
	out := make([]models.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		if !session.IsActive() || session.IsExpired(now) {
			continue
		}
		out = append(out, models.NewSessionSummary(session, current))
	}
	return &models.SessionsResult{Sessions: out}, nil
}

// revokeSession revokes one session and drops its refresh tokens. It
// reports whether the session changed state.
func (s *Service) revokeSession(ctx context.Context, sessionID id.SessionID, now time.Time) (bool, error) {
	revoked := false
	_, err := s.sessions.Execute(ctx, sessionID,
		func(*models.Session) error { return nil },
		func(sess *models.Session) { revoked = sess.Revoke(now) },
	)
	if err != nil {
		return false, err
	}
	if err := s.refreshTokens.DeleteBySessionID(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete refresh tokens for revoked session",
			"error", err,
			"session_id", sessionID.String(),
		)
	}
	if revoked && s.metrics != nil {
		s.metrics.AddSessionsRevoked(1)
	}
	return revoked, nil
}
