package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

// DefaultCookieName carries the access token for browser form flows.
const DefaultCookieName = "civic_session"

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// SessionValidator confirms a session is still active and returns the
// owner's current role. Revoked or expired sessions yield a CodeUnauthorized
// domain error; anything else is treated as an internal failure.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID id.SessionID) (id.Role, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID    string
	SessionID string
	Role      string
	JTI       string
}

type config struct {
	cookieName string
}

type Option func(*config)

// WithCookieName overrides the cookie consulted when no bearer token is sent.
func WithCookieName(name string) Option {
	return func(c *config) { c.cookieName = name }
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

type identity struct {
	userID    id.UserID
	sessionID id.SessionID
	role      id.Role
}

type authFailure struct {
	status int
	code   string
	desc   string
}

var (
	errMissingToken = &authFailure{http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header"}
	errInvalidToken = &authFailure{http.StatusUnauthorized, "unauthorized", "Invalid or expired token"}
	errRevoked      = &authFailure{http.StatusUnauthorized, "unauthorized", "Session has been revoked"}
	errCheckFailed  = &authFailure{http.StatusInternalServerError, "internal_error", "An unexpected error occurred"}
)

func tokenFromRequest(r *http.Request, cookieName string) (string, bool) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token, true
	}
	if cookieName == "" {
		return "", false
	}
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func authenticate(r *http.Request, validator JWTValidator, sessions SessionValidator, cookieName string, logger *slog.Logger) (*identity, *authFailure) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	token, ok := tokenFromRequest(r, cookieName)
	if !ok {
		return nil, errMissingToken
	}

	claims, err := validator.ValidateToken(token)
	if err != nil {
		logger.WarnContext(ctx, "unauthorized access - invalid token",
			"error", err,
			"request_id", requestID,
		)
		return nil, errInvalidToken
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		logger.WarnContext(ctx, "unauthorized access - malformed token claims", "error", err, "request_id", requestID)
		return nil, errInvalidToken
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		logger.WarnContext(ctx, "unauthorized access - malformed token claims", "error", err, "request_id", requestID)
		return nil, errInvalidToken
	}

	role := id.Role(claims.Role)
	if sessions != nil {
		role, err = sessions.ValidateSession(ctx, sessionID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
				logger.WarnContext(ctx, "unauthorized access - session inactive",
					"session_id", sessionID.String(),
					"request_id", requestID,
				)
				return nil, errRevoked
			}
			logger.ErrorContext(ctx, "failed to validate session",
				"error", err,
				"request_id", requestID,
			)
			return nil, errCheckFailed
		}
	}
	if !role.IsValid() {
		return nil, errInvalidToken
	}

	return &identity{userID: userID, sessionID: sessionID, role: role}, nil
}

func withIdentity(ctx context.Context, ident *identity) context.Context {
	ctx = requestcontext.WithUserID(ctx, ident.userID)
	ctx = requestcontext.WithSessionID(ctx, ident.sessionID)
	return requestcontext.WithRole(ctx, ident.role)
}

func buildConfig(opts []Option) config {
	cfg := config{cookieName: DefaultCookieName}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// RequireAuth validates the bearer token (or session cookie), rejects
// revoked sessions, and stores user, session and role in the context.
func RequireAuth(validator JWTValidator, sessions SessionValidator, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	cfg := buildConfig(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, failure := authenticate(r, validator, sessions, cfg.cookieName, logger)
			if failure != nil {
				if failure == errMissingToken {
					logger.WarnContext(r.Context(), "unauthorized access - missing token",
						"request_id", requestcontext.RequestID(r.Context()),
					)
				}
				writeJSONError(w, failure.status, failure.code, failure.desc)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid token is
// present and otherwise lets the request through anonymously.
func OptionalAuth(validator JWTValidator, sessions SessionValidator, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	cfg := buildConfig(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, failure := authenticate(r, validator, sessions, cfg.cookieName, logger)
			if failure != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
		})
	}
}

// RequireRole gates a route on a minimum role. It must run after RequireAuth.
func RequireRole(min id.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.Role(ctx)
			if role == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !role.AtLeast(min) {
				logger.WarnContext(ctx, "forbidden - insufficient role",
					"role", string(role),
					"required", string(min),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
