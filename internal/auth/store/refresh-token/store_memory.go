package refreshtoken

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
// - Consume returns sentinel.ErrNotFound for unknown tokens
// - Consume returns the record with sentinel.ErrAlreadyUsed or sentinel.ErrExpired
//   so the caller can act on the owning session
// InMemoryRefreshTokenStore keys records by token hash.
type InMemoryRefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshTokenRecord
}

func New() *InMemoryRefreshTokenStore {
	return &InMemoryRefreshTokenStore{tokens: make(map[string]*models.RefreshTokenRecord)}
}

func (s *InMemoryRefreshTokenStore) Create(_ context.Context, token *models.RefreshTokenRecord) error {
	if token == nil {
		return fmt.Errorf("refresh token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[token.TokenHash]; exists {
		return fmt.Errorf("refresh token exists: %w", sentinel.ErrConflict)
	}
	cp := *token
	s.tokens[token.TokenHash] = &cp
	return nil
}

// Consume marks the token used if it is unused and unexpired.
func (s *InMemoryRefreshTokenStore) Consume(_ context.Context, tokenHash string, at time.Time) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[tokenHash]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	cp := *record
	if record.IsUsed() {
		return &cp, sentinel.ErrAlreadyUsed
	}
	if record.IsExpired(at) {
		return &cp, sentinel.ErrExpired
	}
	record.UsedAt = &at
	cp.UsedAt = &at
	return &cp, nil
}

func (s *InMemoryRefreshTokenStore) DeleteBySessionID(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, token := range s.tokens {
		if token.SessionID == sessionID {
			delete(s.tokens, key)
		}
	}
	return nil
}

func (s *InMemoryRefreshTokenStore) DeleteExpiredTokens(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, token := range s.tokens {
		if token.IsExpired(now) {
			delete(s.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteUsedTokens removes tokens consumed before the cutoff.
func (s *InMemoryRefreshTokenStore) DeleteUsedTokens(_ context.Context, usedBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, token := range s.tokens {
		if token.UsedAt != nil && token.UsedAt.Before(usedBefore) {
			delete(s.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}
