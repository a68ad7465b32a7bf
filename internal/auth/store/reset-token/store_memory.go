package resettoken

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civic/internal/auth/models"
	"civic/pkg/platform/sentinel"
)

// InMemoryResetTokenStore keys password reset records by token hash.
type InMemoryResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.ResetTokenRecord
}

func New() *InMemoryResetTokenStore {
	return &InMemoryResetTokenStore{tokens: make(map[string]*models.ResetTokenRecord)}
}

func (s *InMemoryResetTokenStore) Create(_ context.Context, token *models.ResetTokenRecord) error {
	if token == nil {
		return fmt.Errorf("reset token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	s.tokens[token.TokenHash] = &cp
	return nil
}

func (s *InMemoryResetTokenStore) Consume(_ context.Context, tokenHash string, at time.Time) (*models.ResetTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[tokenHash]
	if !ok {
		return nil, fmt.Errorf("reset token not found: %w", sentinel.ErrNotFound)
	}
	if record.IsUsed() {
		return nil, sentinel.ErrAlreadyUsed
	}
	if record.IsExpired(at) {
		return nil, sentinel.ErrExpired
	}
	record.UsedAt = &at
	cp := *record
	return &cp, nil
}

// DeleteStaleTokens removes expired tokens and tokens used before now.
func (s *InMemoryResetTokenStore) DeleteStaleTokens(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, token := range s.tokens {
		if token.IsUsed() || token.IsExpired(now) {
			delete(s.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}
