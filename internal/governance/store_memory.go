package governance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"civic/pkg/platform/sentinel"
	"civic/pkg/platform/validation"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	proposals map[uuid.UUID]*Proposal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{proposals: make(map[uuid.UUID]*Proposal)}
}

func (s *InMemoryStore) Create(_ context.Context, p *Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[p.ID]; ok {
		return fmt.Errorf("proposal exists: %w", sentinel.ErrConflict)
	}
	s.proposals[p.ID] = clone(p)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, proposalID uuid.UUID) (*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("proposal not found: %w", sentinel.ErrNotFound)
	}
	return clone(p), nil
}

// List returns proposals most recently updated first.
func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Proposal, 0)
	for _, p := range s.proposals {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if !filter.IncludeDrafts && !p.IsPublic() {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit := validation.ClampLimit(filter.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, proposalID uuid.UUID, mutate func(*Proposal) error) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("proposal not found: %w", sentinel.ErrNotFound)
	}
	working := clone(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.proposals[proposalID] = working
	return clone(working), nil
}

func clone(p *Proposal) *Proposal {
	cp := *p
	cp.VotingStartsAt = copyTime(p.VotingStartsAt)
	cp.VotingEndsAt = copyTime(p.VotingEndsAt)
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
