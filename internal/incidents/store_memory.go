package incidents

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
	mu      sync.RWMutex
	reports map[uuid.UUID]*Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[uuid.UUID]*Report)}
}

func (s *InMemoryStore) Create(_ context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; ok {
		return fmt.Errorf("incident report exists: %w", sentinel.ErrConflict)
	}
	cp := *r
	s.reports[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, reportID uuid.UUID) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("incident report not found: %w", sentinel.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

// List returns reports newest first, optionally filtered by status.
func (s *InMemoryStore) List(_ context.Context, status Status, limit int) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Report, 0)
	for _, r := range s.reports {
		if status != "" && r.Status != status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit = validation.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context, status Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.reports {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) Update(_ context.Context, reportID uuid.UUID, mutate func(*Report) error) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("incident report not found: %w", sentinel.ErrNotFound)
	}
	working := *current
	if err := mutate(&working); err != nil {
		return nil, err
	}
	s.reports[reportID] = &working
	out := working
	return &out, nil
}
