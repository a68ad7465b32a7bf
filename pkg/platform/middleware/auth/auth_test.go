package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

const (
	testUserID    = "550e8400-e29b-41d4-a716-446655440001"
	testSessionID = "550e8400-e29b-41d4-a716-446655440002"
)

type MockJWTValidator struct {
	mock.Mock
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*JWTClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSessionValidator struct {
	mock.Mock
}

func (m *MockSessionValidator) ValidateSession(ctx context.Context, sessionID id.SessionID) (id.Role, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(id.Role), args.Error(1)
}

type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareTestSuite struct {
	suite.Suite
	validator *MockJWTValidator
	sessions  *MockSessionValidator
	logger    *slog.Logger
	next      *captureHandler
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}

func (s *AuthMiddlewareTestSuite) SetupTest() {
	s.validator = new(MockJWTValidator)
	s.sessions = new(MockSessionValidator)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.next = &captureHandler{}
}

func (s *AuthMiddlewareTestSuite) TearDownTest() {
	s.validator.AssertExpectations(s.T())
	s.sessions.AssertExpectations(s.T())
}

func (s *AuthMiddlewareTestSuite) validClaims(role string) *JWTClaims {
	return &JWTClaims{UserID: testUserID, SessionID: testSessionID, Role: role, JTI: "jti-1"}
}

func (s *AuthMiddlewareTestSuite) serve(mw func(http.Handler) http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mw(s.next).ServeHTTP(w, req)
	return w
}

func bearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (s *AuthMiddlewareTestSuite) TestRequireAuth() {
	s.Run("valid bearer token populates context with the session's current role", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "good").Return(s.validClaims("member"), nil)
		s.sessions.On("ValidateSession", mock.Anything, mustSessionID(testSessionID)).Return(id.RoleEditor, nil)

		w := s.serve(RequireAuth(s.validator, s.sessions, s.logger), bearer("good"))

		s.Equal(http.StatusOK, w.Code)
		s.Require().True(s.next.called)
		s.Equal(testUserID, requestcontext.UserID(s.next.ctx).String())
		s.Equal(testSessionID, requestcontext.SessionID(s.next.ctx).String())
		s.Equal(id.RoleEditor, requestcontext.Role(s.next.ctx))
		s.TearDownTest()
	})

	s.Run("session cookie is accepted when no header is sent", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "cookie-token").Return(s.validClaims("member"), nil)

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "cookie-token"})
		w := s.serve(RequireAuth(s.validator, nil, s.logger), req)

		s.Equal(http.StatusOK, w.Code)
		s.Equal(id.RoleMember, requestcontext.Role(s.next.ctx))
		s.TearDownTest()
	})

	s.Run("missing token", func() {
		s.SetupTest()
		w := s.serve(RequireAuth(s.validator, s.sessions, s.logger), httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.JSONEq(`{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`, w.Body.String())
		s.False(s.next.called)
	})

	s.Run("invalid token", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "bad").Return(nil, errors.New("signature invalid"))

		w := s.serve(RequireAuth(s.validator, s.sessions, s.logger), bearer("bad"))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.False(s.next.called)
		s.TearDownTest()
	})

	s.Run("malformed user id claim", func() {
		s.SetupTest()
		claims := s.validClaims("member")
		claims.UserID = "not-a-uuid"
		s.validator.On("ValidateToken", "odd").Return(claims, nil)

		w := s.serve(RequireAuth(s.validator, s.sessions, s.logger), bearer("odd"))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.TearDownTest()
	})

	s.Run("revoked session", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "good").Return(s.validClaims("member"), nil)
		s.sessions.On("ValidateSession", mock.Anything, mock.Anything).
			Return(id.Role(""), dErrors.New(dErrors.CodeUnauthorized, "session revoked"))

		w := s.serve(RequireAuth(s.validator, s.sessions, s.logger), bearer("good"))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.JSONEq(`{"error":"unauthorized","error_description":"Session has been revoked"}`, w.Body.String())
		s.False(s.next.called)
		s.TearDownTest()
	})

	s.Run("session lookup failure is internal", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "good").Return(s.validClaims("member"), nil)
		s.sessions.On("ValidateSession", mock.Anything, mock.Anything).Return(id.Role(""), errors.New("redis down"))

		w := s.serve(RequireAuth(s.validator, s.sessions, s.logger), bearer("good"))

		s.Equal(http.StatusInternalServerError, w.Code)
		s.JSONEq(`{"error":"internal_error","error_description":"An unexpected error occurred"}`, w.Body.String())
		s.TearDownTest()
	})

	s.Run("unknown role in token", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "good").Return(s.validClaims("superuser"), nil)

		w := s.serve(RequireAuth(s.validator, nil, s.logger), bearer("good"))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.TearDownTest()
	})
}

func (s *AuthMiddlewareTestSuite) TestOptionalAuth() {
	s.Run("anonymous request passes through without identity", func() {
		s.SetupTest()
		w := s.serve(OptionalAuth(s.validator, nil, s.logger), httptest.NewRequest(http.MethodPost, "/incidents", nil))

		s.Equal(http.StatusOK, w.Code)
		s.True(requestcontext.UserID(s.next.ctx).IsNil())
	})

	s.Run("invalid token is ignored", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "bad").Return(nil, errors.New("expired"))

		w := s.serve(OptionalAuth(s.validator, nil, s.logger), bearer("bad"))

		s.Equal(http.StatusOK, w.Code)
		s.Equal(id.Role(""), requestcontext.Role(s.next.ctx))
		s.TearDownTest()
	})

	s.Run("valid token attaches identity", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "good").Return(s.validClaims("admin"), nil)

		s.serve(OptionalAuth(s.validator, nil, s.logger), bearer("good"))

		s.Equal(id.RoleAdmin, requestcontext.Role(s.next.ctx))
		s.TearDownTest()
	})
}

func (s *AuthMiddlewareTestSuite) TestRequireRole() {
	tests := []struct {
		name string
		role id.Role
		min  id.Role
		want int
	}{
		{"anonymous", "", id.RoleMember, http.StatusUnauthorized},
		{"member blocked from editor route", id.RoleMember, id.RoleEditor, http.StatusForbidden},
		{"editor allowed on editor route", id.RoleEditor, id.RoleEditor, http.StatusOK},
		{"editor blocked from admin route", id.RoleEditor, id.RoleAdmin, http.StatusForbidden},
		{"admin allowed everywhere", id.RoleAdmin, id.RoleEditor, http.StatusOK},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			req := httptest.NewRequest(http.MethodGet, "/admin/incidents", nil)
			if tt.role != "" {
				req = req.WithContext(requestcontext.WithRole(req.Context(), tt.role))
			}
			w := s.serve(RequireRole(tt.min, s.logger), req)

			s.Equal(tt.want, w.Code)
			s.Equal(tt.want == http.StatusOK, s.next.called)
		})
	}
}

func mustSessionID(raw string) id.SessionID {
	sid, err := id.ParseSessionID(raw)
	if err != nil {
		panic(err)
	}
	return sid
}
