package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"civic/internal/auth/models"
	"civic/internal/jwttoken"
	id "civic/pkg/domain"
)

// UserStore defines the persistence interface for user data.
// Error Contract: Find methods return sentinel.ErrNotFound; Create returns
// sentinel.ErrConflict for a duplicate email.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdatePassword(ctx context.Context, userID id.UserID, passwordHash string, at time.Time) error
	UpdateRole(ctx context.Context, userID id.UserID, role id.Role, at time.Time) (*models.User, error)
}

// SessionStore defines the persistence interface for session data.
// Execute validates and mutates one session atomically; validate errors are
// returned unchanged.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error)
	Execute(ctx context.Context, sessionID id.SessionID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error)
	RevokeAllByUser(ctx context.Context, userID id.UserID, at time.Time) (int, error)
}

// RefreshTokenStore keeps hashed single-use refresh tokens. Consume returns
// the record alongside sentinel.ErrAlreadyUsed so reuse can be traced to a session.
type RefreshTokenStore interface {
	Create(ctx context.Context, token *models.RefreshTokenRecord) error
	Consume(ctx context.Context, tokenHash string, at time.Time) (*models.RefreshTokenRecord, error)
	DeleteBySessionID(ctx context.Context, sessionID id.SessionID) error
}

type ResetTokenStore interface {
	Create(ctx context.Context, token *models.ResetTokenRecord) error
	Consume(ctx context.Context, tokenHash string, at time.Time) (*models.ResetTokenRecord, error)
}

type TokenGenerator interface {
	GenerateAccessToken(ctx context.Context, userID id.UserID, sessionID id.SessionID, role id.Role) (*jwttoken.AccessToken, error)
	CreateRefreshToken() (string, error)
	CreateResetToken() (string, error)
}

// Mailer delivers password reset tokens out of band.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error
}
