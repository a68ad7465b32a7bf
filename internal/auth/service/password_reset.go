package service

import (
	"context"
	"errors"

	"civic/internal/auth/models"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/privacy"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

const invalidResetTokenMessage = "invalid or expired reset token"

// RequestPasswordReset issues a reset token when the email belongs to an
// active account. It returns nil either way so callers cannot probe for
// registered addresses; failures are only logged.
func (s *Service) RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error {
	now := requestcontext.Now(ctx)
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "password reset lookup failed", "error", err)
		}
		return nil
	}
	if !user.IsActive() {
		return nil
	}

	token, err := s.jwt.CreateResetToken()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to generate reset token", "error", err)
		return nil
	}
	record := &models.ResetTokenRecord{
		TokenHash: models.HashToken(token),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
	}
	if err := s.resetTokens.Create(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to store reset token", "error", err, "user_id", user.ID.String())
		return nil
	}

	if s.mailer == nil {
		s.logger.WarnContext(ctx, "no mailer configured, reset token not delivered", "user_id", user.ID.String())
		return nil
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token, record.ExpiresAt); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset",
			"error", err,
			"email", privacy.MaskEmail(user.Email),
		)
		return nil
	}

	s.logAudit(ctx, eventPasswordResetRequested, "user_id", user.ID.String())
	return nil
}

// ResetPassword consumes a reset token, sets the new password and signs the
// user out everywhere.
func (s *Service) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	now := requestcontext.Now(ctx)

	record, err := s.resetTokens.Consume(ctx, models.HashToken(req.Token), now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrAlreadyUsed) || errors.Is(err, sentinel.ErrExpired) {
			s.authFailure(ctx, "invalid_reset_token", false)
			return dErrors.New(dErrors.CodeInvalidGrant, invalidResetTokenMessage)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume reset token")
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidGrant, invalidResetTokenMessage)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.IsActive() {
		return dErrors.New(dErrors.CodeInvalidGrant, invalidResetTokenMessage)
	}

	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	revoked, err := s.sessions.RevokeAllByUser(ctx, user.ID, now)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke sessions")
	}
	if s.metrics != nil {
		s.metrics.IncrementPasswordResets()
		s.metrics.AddSessionsRevoked(revoked)
	}
	s.logAudit(ctx, eventPasswordReset, "user_id", user.ID.String(), "sessions_revoked", revoked)
	return nil
}
