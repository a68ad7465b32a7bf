package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civic/internal/auth/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

// Error Contract:
// - Find and Execute return sentinel.ErrNotFound when the session does not exist
// - Execute passes validate errors through unchanged
// InMemorySessionStore stores sessions in memory for tests and local development.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

// New constructs an empty in-memory session store.
func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[sessionID]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
}

// ListByUser returns the user's sessions, newest first.
func (s *InMemorySessionStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*models.Session, 0)
	for _, session := range s.sessions {
		if session.UserID == userID {
			cp := *session
			sessions = append(sessions, &cp)
		}
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

// Execute atomically validates and mutates a session under the store lock.
func (s *InMemorySessionStore) Execute(_ context.Context, sessionID id.SessionID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	working := *stored
	if err := validate(&working); err != nil {
		return &working, err
	}
	mutate(&working)
	s.sessions[sessionID] = &working
	result := working
	return &result, nil
}

// RevokeAllByUser revokes every active session of the user and returns how many changed.
func (s *InMemorySessionStore) RevokeAllByUser(_ context.Context, userID id.UserID, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, session := range s.sessions {
		if session.UserID == userID && session.Revoke(at) {
			count++
		}
	}
	return count, nil
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now.
func (s *InMemorySessionStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, key)
			deleted++
		}
	}
	return deleted, nil
}
