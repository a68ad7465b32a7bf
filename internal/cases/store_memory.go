package cases

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"civic/pkg/platform/sentinel"
	"civic/pkg/platform/validation"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	cases map[uuid.UUID]*LegalCase
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cases: make(map[uuid.UUID]*LegalCase)}
}

func (s *InMemoryStore) Create(_ context.Context, c *LegalCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return fmt.Errorf("legal case exists: %w", sentinel.ErrConflict)
	}
	if err := s.checkDocketLocked(c); err != nil {
		return err
	}
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, caseID uuid.UUID) (*LegalCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("legal case not found: %w", sentinel.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// List orders open matters before closed ones, then newest first.
func (s *InMemoryStore) List(_ context.Context, status Status, limit int) ([]*LegalCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*LegalCase, 0)
	for _, c := range s.cases {
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Status == StatusClosed, out[j].Status == StatusClosed
		if ci != cj {
			return !ci
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit = validation.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, caseID uuid.UUID, mutate func(*LegalCase) error) (*LegalCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("legal case not found: %w", sentinel.ErrNotFound)
	}
	working := *current
	if err := mutate(&working); err != nil {
		return nil, err
	}
	if err := s.checkDocketLocked(&working); err != nil {
		return nil, err
	}
	s.cases[caseID] = &working
	out := working
	return &out, nil
}

func (s *InMemoryStore) checkDocketLocked(c *LegalCase) error {
	for otherID, other := range s.cases {
		if otherID != c.ID && c.SameDocket(other) {
			return fmt.Errorf("docket %s already recorded: %w", c.DocketNumber, sentinel.ErrConflict)
		}
	}
	return nil
}
