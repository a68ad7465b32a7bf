package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

// Pure domain models for authentication. JSON shapes live in responses.go.

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// User is an account holder. Email uniqueness is case-insensitive and is
// enforced by the store.
type User struct {
	ID           id.UserID
	Email        string
	DisplayName  string
	PasswordHash string
	Role         id.Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Session is one signed-in device. Access tokens reference it by ID so that
// revocation takes effect before the token expires.
type Session struct {
	ID                id.SessionID
	UserID            id.UserID
	Status            SessionStatus
	DeviceDisplayName string // e.g. "Firefox on Linux"
	ClientIPPrefix    string // anonymized, e.g. "203.0.113.0"
	CreatedAt         time.Time
	ExpiresAt         time.Time
	LastSeenAt        time.Time
	LastRefreshedAt   *time.Time
	RevokedAt         *time.Time
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

func (s *Session) IsRevoked() bool {
	return s.Status == SessionStatusRevoked
}

func (s *Session) IsExpired(at time.Time) bool {
	return !at.Before(s.ExpiresAt)
}

// Revoke transitions the session to revoked. Returns false if it already was.
func (s *Session) Revoke(at time.Time) bool {
	if s.IsRevoked() {
		return false
	}
	s.Status = SessionStatusRevoked
	s.RevokedAt = &at
	return true
}

// RecordRefresh updates the refresh and activity timestamps, never moving them backwards.
func (s *Session) RecordRefresh(at time.Time) {
	if s.LastRefreshedAt == nil || at.After(*s.LastRefreshedAt) {
		s.LastRefreshedAt = &at
	}
	if at.After(s.LastSeenAt) {
		s.LastSeenAt = at
	}
}

// ValidateForRefresh checks that the session may mint new tokens at the given time.
func (s *Session) ValidateForRefresh(at time.Time) error {
	if s.IsRevoked() {
		return dErrors.New(dErrors.CodeInvalidGrant, "session has been revoked")
	}
	if s.IsExpired(at) {
		return dErrors.New(dErrors.CodeInvalidGrant, "session expired")
	}
	return nil
}

// RefreshTokenRecord is a single-use refresh token. Only the SHA-256 of the
// token is stored.
type RefreshTokenRecord struct {
	TokenHash string
	SessionID id.SessionID
	UserID    id.UserID
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

func (r *RefreshTokenRecord) IsUsed() bool {
	return r.UsedAt != nil
}

func (r *RefreshTokenRecord) IsExpired(at time.Time) bool {
	return !at.Before(r.ExpiresAt)
}

// ResetTokenRecord is a single-use password reset token, also stored hashed.
type ResetTokenRecord struct {
	TokenHash string
	UserID    id.UserID
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

func (r *ResetTokenRecord) IsUsed() bool {
	return r.UsedAt != nil
}

func (r *ResetTokenRecord) IsExpired(at time.Time) bool {
	return !at.Before(r.ExpiresAt)
}

// HashToken returns the hex SHA-256 of an opaque token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
