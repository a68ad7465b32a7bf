package submissions

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
	mu          sync.RWMutex
	submissions map[uuid.UUID]*Submission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{submissions: make(map[uuid.UUID]*Submission)}
}

func (s *InMemoryStore) Create(_ context.Context, sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; ok {
		return fmt.Errorf("submission exists: %w", sentinel.ErrConflict)
	}
	s.submissions[sub.ID] = clone(sub)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, submissionID uuid.UUID) (*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	return clone(sub), nil
}

// List returns submissions oldest first so the review queue drains in order.
func (s *InMemoryStore) List(_ context.Context, status Status, limit int) ([]*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Submission, 0)
	for _, sub := range s.submissions {
		if status != "" && sub.Status != status {
			continue
		}
		out = append(out, clone(sub))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
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
	for _, sub := range s.submissions {
		if sub.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) Update(_ context.Context, submissionID uuid.UUID, mutate func(*Submission) error) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	working := clone(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.submissions[submissionID] = working
	return clone(working), nil
}

func clone(sub *Submission) *Submission {
	cp := *sub
	if sub.ReviewerID != nil {
		reviewer := *sub.ReviewerID
		cp.ReviewerID = &reviewer
	}
	return &cp
}
