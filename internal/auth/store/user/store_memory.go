package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"civic/internal/auth/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

// Error Contract:
// - Find methods return sentinel.ErrNotFound when the user does not exist
// - Create returns sentinel.ErrConflict when the email is already registered
// InMemoryUserStore stores users in memory for tests and local development.
// Values are copied on the way in and out.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

// New constructs an empty in-memory user store.
func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func emailKey(email string) string {
	return strings.ToLower(email)
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user id already exists: %w", sentinel.ErrConflict)
	}
	u := *user
	s.users[user.ID] = &u
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		u := *user
		return &u, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byEmail[emailKey(email)]; ok {
		u := *s.users[userID]
		return &u, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		u := *user
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryUserStore) UpdatePassword(_ context.Context, userID id.UserID, passwordHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = at
	return nil
}

func (s *InMemoryUserStore) UpdateRole(_ context.Context, userID id.UserID, role id.Role, at time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	user.Role = role
	user.UpdatedAt = at
	u := *user
	return &u, nil
}
