package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"civic/internal/auth/models"
	"civic/internal/auth/service/mocks"
	refreshtoken "civic/internal/auth/store/refresh-token"
	resettoken "civic/internal/auth/store/reset-token"
	sessionstore "civic/internal/auth/store/session"
	userstore "civic/internal/auth/store/user"
	"civic/internal/jwttoken"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

// ServiceSuite runs the auth flows against the in-memory stores with a
// controllable clock. The mailer is mocked so reset tokens can be captured.
type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	mailer   *mocks.MockMailer
	users    *userstore.InMemoryUserStore
	sessions *sessionstore.InMemorySessionStore
	refresh  *refreshtoken.InMemoryRefreshTokenStore
	resets   *resettoken.InMemoryResetTokenStore
	service  *Service
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mailer = mocks.NewMockMailer(s.ctrl)
	s.users = userstore.New()
	s.sessions = sessionstore.New()
	s.refresh = refreshtoken.New()
	s.resets = resettoken.New()
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	svc, err := New(s.users, s.sessions, s.refresh, s.resets,
		jwttoken.NewJWTService("test-signing-key", "civic-test", 15*time.Minute),
		Config{SessionTTL: 24 * time.Hour, RefreshTokenTTL: 12 * time.Hour, ResetTokenTTL: time.Hour},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMailer(s.mailer),
		WithBcryptCost(bcrypt.MinCost),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	ctx = requestcontext.WithUserAgent(ctx, "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	return requestcontext.WithClientIP(ctx, "203.0.113.42")
}

func (s *ServiceSuite) signUp(email string) *models.AuthResult {
	res, err := s.service.SignUp(s.ctx(), &models.SignUpRequest{
		Email:       email,
		Password:    "correct-horse",
		DisplayName: "Ada",
	})
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) TestSignUp() {
	s.Run("creates a member with a token pair", func() {
		res := s.signUp("ada@example.org")
		s.Equal(id.RoleMember, res.User.Role)
		s.NotEmpty(res.AccessToken)
		s.NotEmpty(res.RefreshToken)
		s.Equal("Bearer", res.TokenType)
		s.Equal(900, res.ExpiresIn)

		sessionID, err := id.ParseSessionID(res.SessionID)
		s.Require().NoError(err)
		session, err := s.sessions.FindByID(s.ctx(), sessionID)
		s.Require().NoError(err)
		s.Contains(session.DeviceDisplayName, "Firefox")
		s.Equal("203.0.113.0", session.ClientIPPrefix)
		s.Equal(s.now.Add(24*time.Hour), session.ExpiresAt)
	})

	s.Run("duplicate email is a conflict", func() {
		_, err := s.service.SignUp(s.ctx(), &models.SignUpRequest{
			Email:       "ada@example.org",
			Password:    "another-pass",
			DisplayName: "Ada Two",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("email already registered", err.Error())
	})

	s.Run("short password is rejected", func() {
		_, err := s.service.SignUp(s.ctx(), &models.SignUpRequest{
			Email:       "short@example.org",
			Password:    "short",
			DisplayName: "Short",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestSignIn() {
	s.signUp("grace@example.org")

	s.Run("valid credentials open a new session", func() {
		res, err := s.service.SignIn(s.ctx(), &models.SignInRequest{Email: "grace@example.org", Password: "correct-horse"})
		s.Require().NoError(err)
		s.Equal("grace@example.org", res.User.Email)
	})

	s.Run("wrong password and unknown email look the same", func() {
		_, wrongPass := s.service.SignIn(s.ctx(), &models.SignInRequest{Email: "grace@example.org", Password: "nope-nope"})
		_, unknown := s.service.SignIn(s.ctx(), &models.SignInRequest{Email: "nobody@example.org", Password: "correct-horse"})
		s.Require().Error(wrongPass)
		s.Require().Error(unknown)
		s.True(dErrors.HasCode(wrongPass, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(unknown, dErrors.CodeUnauthorized))
		s.Equal(wrongPass.Error(), unknown.Error())
		s.Equal("invalid email or password", unknown.Error())
	})
}

func (s *ServiceSuite) TestRefresh() {
	s.Run("rotates the refresh token", func() {
		first := s.signUp("rotate@example.org")

		s.now = s.now.Add(10 * time.Minute)
		second, err := s.service.Refresh(s.ctx(), &models.RefreshRequest{RefreshToken: first.RefreshToken})
		s.Require().NoError(err)
		s.NotEqual(first.RefreshToken, second.RefreshToken)
		s.Equal(first.SessionID, second.SessionID)

		sessionID, _ := id.ParseSessionID(second.SessionID)
		session, err := s.sessions.FindByID(s.ctx(), sessionID)
		s.Require().NoError(err)
		s.Require().NotNil(session.LastRefreshedAt)
		s.Equal(s.now, *session.LastRefreshedAt)
	})

	s.Run("reusing a consumed token revokes the session", func() {
		first := s.signUp("reuse@example.org")
		second, err := s.service.Refresh(s.ctx(), &models.RefreshRequest{RefreshToken: first.RefreshToken})
		s.Require().NoError(err)

		_, err = s.service.Refresh(s.ctx(), &models.RefreshRequest{RefreshToken: first.RefreshToken})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))

		// the legitimately rotated token is dead too
		_, err = s.service.Refresh(s.ctx(), &models.RefreshRequest{RefreshToken: second.RefreshToken})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))

		sessionID, _ := id.ParseSessionID(first.SessionID)
		session, err := s.sessions.FindByID(s.ctx(), sessionID)
		s.Require().NoError(err)
		s.True(session.IsRevoked())
	})

	s.Run("expired token is an invalid grant", func() {
		res := s.signUp("expired@example.org")
		s.now = s.now.Add(13 * time.Hour)
		_, err := s.service.Refresh(s.ctx(), &models.RefreshRequest{RefreshToken: res.RefreshToken})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))
		s.Equal("refresh token expired", err.Error())
	})

	s.Run("unknown token is an invalid grant", func() {
		_, err := s.service.Refresh(s.ctx(), &models.RefreshRequest{RefreshToken: "not-a-token"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))
	})

	s.Run("signed out session cannot refresh", func() {
		res := s.signUp("signedout@example.org")
		sessionID, _ := id.ParseSessionID(res.SessionID)
		s.Require().NoError(s.service.SignOut(s.ctx(), sessionID))

		_, err := s.service.Refresh(s.ctx(), &models.RefreshRequest{RefreshToken: res.RefreshToken})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))
	})
}

func (s *ServiceSuite) TestSessions() {
	res := s.signUp("sessions@example.org")
	current, _ := id.ParseSessionID(res.SessionID)
	userID, _ := id.ParseUserID(res.User.ID)

	other, err := s.service.SignIn(s.ctx(), &models.SignInRequest{Email: "sessions@example.org", Password: "correct-horse"})
	s.Require().NoError(err)
	otherID, _ := id.ParseSessionID(other.SessionID)

	s.Run("Session returns the profile", func() {
		info, err := s.service.Session(s.ctx(), current)
		s.Require().NoError(err)
		s.Equal(res.User.ID, info.User.ID)
		s.True(info.Session.IsCurrent)
	})

	s.Run("ValidateSession reports the role", func() {
		role, err := s.service.ValidateSession(s.ctx(), current)
		s.Require().NoError(err)
		s.Equal(id.RoleMember, role)
	})

	s.Run("sign out is idempotent and hides the session", func() {
		s.Require().NoError(s.service.SignOut(s.ctx(), otherID))
		s.Require().NoError(s.service.SignOut(s.ctx(), otherID))
		s.Require().NoError(s.service.SignOut(s.ctx(), id.SessionID(uuid.New())))

		_, err := s.service.ValidateSession(s.ctx(), otherID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		list, err := s.service.ListSessions(s.ctx(), userID, current)
		s.Require().NoError(err)
		s.Require().Len(list.Sessions, 1)
		s.Equal(current.String(), list.Sessions[0].SessionID)
		s.True(list.Sessions[0].IsCurrent)
	})

	s.Run("expired session fails validation", func() {
		s.now = s.now.Add(25 * time.Hour)
		_, err := s.service.ValidateSession(s.ctx(), current)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestPasswordReset() {
	res := s.signUp("reset@example.org")
	sessionID, _ := id.ParseSessionID(res.SessionID)

	var token string
	s.mailer.EXPECT().
		SendPasswordReset(gomock.Any(), "reset@example.org", gomock.Any(), s.now.Add(time.Hour)).
		DoAndReturn(func(_ context.Context, _, tok string, _ time.Time) error {
			token = tok
			return nil
		})

	s.Require().NoError(s.service.RequestPasswordReset(s.ctx(), &models.PasswordResetRequest{Email: "reset@example.org"}))
	s.Require().NotEmpty(token)

	s.Run("unknown email still succeeds without mail", func() {
		s.NoError(s.service.RequestPasswordReset(s.ctx(), &models.PasswordResetRequest{Email: "ghost@example.org"}))
	})

	s.Run("reset sets the password and signs out everywhere", func() {
		err := s.service.ResetPassword(s.ctx(), &models.ResetPasswordRequest{Token: token, NewPassword: "brand-new-pass"})
		s.Require().NoError(err)

		_, err = s.service.ValidateSession(s.ctx(), sessionID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		_, err = s.service.SignIn(s.ctx(), &models.SignInRequest{Email: "reset@example.org", Password: "correct-horse"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, err = s.service.SignIn(s.ctx(), &models.SignInRequest{Email: "reset@example.org", Password: "brand-new-pass"})
		s.NoError(err)
	})

	s.Run("token is single use", func() {
		err := s.service.ResetPassword(s.ctx(), &models.ResetPasswordRequest{Token: token, NewPassword: "third-password"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))
		s.Equal("invalid or expired reset token", err.Error())
	})
}

func (s *ServiceSuite) TestSetRole() {
	admin, created, err := s.service.Provision(s.ctx(), "admin@example.org", "admin-password", "Admin", id.RoleAdmin)
	s.Require().NoError(err)
	s.True(created)
	member := s.signUp("member@example.org")
	memberID, _ := id.ParseUserID(member.User.ID)

	s.Run("Provision is idempotent", func() {
		again, created, err := s.service.Provision(s.ctx(), "admin@example.org", "admin-password", "Admin", id.RoleAdmin)
		s.Require().NoError(err)
		s.False(created)
		s.Equal(admin.ID, again.ID)
	})

	s.Run("promotes another user", func() {
		view, err := s.service.SetRole(s.ctx(), admin.ID, memberID, id.RoleEditor)
		s.Require().NoError(err)
		s.Equal(id.RoleEditor, view.Role)

		sessionID, _ := id.ParseSessionID(member.SessionID)
		role, err := s.service.ValidateSession(s.ctx(), sessionID)
		s.Require().NoError(err)
		s.Equal(id.RoleEditor, role)
	})

	s.Run("cannot change own role", func() {
		_, err := s.service.SetRole(s.ctx(), admin.ID, admin.ID, id.RoleMember)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects unknown roles and users", func() {
		_, err := s.service.SetRole(s.ctx(), admin.ID, memberID, id.Role("owner"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.SetRole(s.ctx(), admin.ID, id.UserID(uuid.New()), id.RoleEditor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("ListUsers returns everyone", func() {
		users, err := s.service.ListUsers(s.ctx())
		s.Require().NoError(err)
		s.Len(users, 2)
	})
}
