package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"civic/internal/auth/device"
	"civic/internal/auth/email"
	"civic/internal/auth/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/privacy"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

const invalidCredentialsMessage = "invalid email or password"

// SignUp creates a member account and signs it in.
func (s *Service) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResult, error) {
	now := requestcontext.Now(ctx)
	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, id.RoleMember, now)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user, now)
}

// SignIn checks credentials and opens a new session. Unknown emails, wrong
// passwords and disabled accounts are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthResult, error) {
	start := time.Now()
	defer s.observeSignIn(start)

	now := requestcontext.Now(ctx)
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.burnPasswordCheck(req.Password)
			s.authFailure(ctx, "unknown_email", false, "email", privacy.MaskEmail(req.Email))
			return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		s.authFailure(ctx, "user_lookup_failed", true, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.authFailure(ctx, "wrong_password", false, "user_id", user.ID.String())
		return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsActive() {
		s.authFailure(ctx, "account_disabled", false, "user_id", user.ID.String())
		return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.startSession(ctx, user, now)
}

// Provision creates a user with the given role unless the email is already
// registered, in which case the existing user is returned with created=false.
// A blank display name is derived from the address.
func (s *Service) Provision(ctx context.Context, address, password, displayName string, role id.Role) (*models.User, bool, error) {
	if !role.IsValid() {
		return nil, false, dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	existing, err := s.users.FindByEmail(ctx, address)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = email.DisplayNameFromEmail(address)
	}
	user, err := s.createUser(ctx, address, password, displayName, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *Service) createUser(ctx context.Context, address, password, displayName string, role id.Role, now time.Time) (*models.User, error) {
	if len(password) < models.MinPasswordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		ID:           id.UserID(uuid.New()),
		Email:        address,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logAudit(ctx, eventUserCreated, "user_id", user.ID.String(), "role", role.String())
	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
	return user, nil
}

func (s *Service) startSession(ctx context.Context, user *models.User, now time.Time) (*models.AuthResult, error) {
	info := device.Describe(requestcontext.UserAgent(ctx), requestcontext.ClientIP(ctx))
	session := &models.Session{
		ID:                id.SessionID(uuid.New()),
		UserID:            user.ID,
		Status:            models.SessionStatusActive,
		DeviceDisplayName: info.DisplayName,
		ClientIPPrefix:    info.IPPrefix,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.cfg.SessionTTL),
		LastSeenAt:        now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	result, err := s.issueTokens(ctx, user, session, now)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, eventSessionCreated,
		"user_id", user.ID.String(),
		"session_id", session.ID.String(),
		"device", session.DeviceDisplayName,
	)
	if s.metrics != nil {
		s.metrics.IncrementSessionsCreated()
	}
	return result, nil
}

// issueTokens mints an access token and a fresh refresh token for session.
// The refresh token never outlives its session.
func (s *Service) issueTokens(ctx context.Context, user *models.User, session *models.Session, now time.Time) (*models.AuthResult, error) {
	access, err := s.jwt.GenerateAccessToken(ctx, user.ID, session.ID, user.Role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate access token")
	}
	refresh, err := s.jwt.CreateRefreshToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate refresh token")
	}

	expiresAt := now.Add(s.cfg.RefreshTokenTTL)
	if session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}
	if err := s.refreshTokens.Create(ctx, &models.RefreshTokenRecord{
		TokenHash: models.HashToken(refresh),
		SessionID: session.ID,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store refresh token")
	}

	return &models.AuthResult{
		AccessToken:  access.Token,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(access.ExpiresAt.Sub(now).Seconds()),
		ExpiresAt:    access.ExpiresAt,
		SessionID:    session.ID.String(),
		User:         models.NewUserView(user),
	}, nil
}
