package service

import (
	"context"
	"errors"

	"civic/internal/auth/models"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
)

// handleTokenError translates store and session failures during refresh into
// invalid_grant responses. Domain errors pass through unchanged.
func (s *Service) handleTokenError(ctx context.Context, err error, record *models.RefreshTokenRecord) error {
	attrs := []any{}
	if record != nil {
		attrs = append(attrs, "session_id", record.SessionID.String(), "user_id", record.UserID.String())
	}

	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		s.authFailure(ctx, "refresh_rejected", false, append(attrs, "reason_detail", de.Message)...)
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		s.authFailure(ctx, "refresh_unknown", false, attrs...)
		return dErrors.New(dErrors.CodeInvalidGrant, "invalid refresh token")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		s.authFailure(ctx, "refresh_reused", false, attrs...)
		return dErrors.New(dErrors.CodeInvalidGrant, "refresh token already used")
	case errors.Is(err, sentinel.ErrExpired):
		s.authFailure(ctx, "refresh_expired", false, attrs...)
		return dErrors.New(dErrors.CodeInvalidGrant, "refresh token expired")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "session is being refreshed concurrently")
	default:
		s.authFailure(ctx, "refresh_failed", true, append(attrs, "error", err)...)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh token")
	}
}
