package models

import (
	"time"

	id "civic/pkg/domain"
)

type UserView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        id.Role   `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewUserView(u *User) UserView {
	return UserView{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// AuthResult is returned by sign-up, sign-in and refresh.
type AuthResult struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	SessionID    string    `json:"session_id"`
	User         UserView  `json:"user"`
}

type SessionSummary struct {
	SessionID  string     `json:"session_id"`
	Device     string     `json:"device"`
	Location   string     `json:"location,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Refreshed  *time.Time `json:"last_refreshed_at,omitempty"`
	IsCurrent  bool       `json:"is_current"`
}

func NewSessionSummary(s *Session, current id.SessionID) SessionSummary {
	return SessionSummary{
		SessionID:  s.ID.String(),
		Device:     s.DeviceDisplayName,
		Location:   s.ClientIPPrefix,
		CreatedAt:  s.CreatedAt,
		LastSeenAt: s.LastSeenAt,
		ExpiresAt:  s.ExpiresAt,
		Refreshed:  s.LastRefreshedAt,
		IsCurrent:  s.ID == current,
	}
}

// SessionInfo answers "who am I" for the current session.
type SessionInfo struct {
	Session SessionSummary `json:"session"`
	User    UserView       `json:"user"`
}

type SessionsResult struct {
	Sessions []SessionSummary `json:"sessions"`
}
