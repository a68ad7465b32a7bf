package events

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
	mu     sync.RWMutex
	events map[uuid.UUID]*Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[uuid.UUID]*Event)}
}

func (s *InMemoryStore) Create(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return fmt.Errorf("event exists: %w", sentinel.ErrConflict)
	}
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, eventID uuid.UUID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event not found: %w", sentinel.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

// List returns events overlapping the window in start order.
func (s *InMemoryStore) List(_ context.Context, w Window) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Event, 0)
	for _, e := range s.events {
		if !w.Overlaps(e) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit := validation.ClampLimit(w.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, eventID uuid.UUID, mutate func(*Event) error) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event not found: %w", sentinel.ErrNotFound)
	}
	working := *current
	if err := mutate(&working); err != nil {
		return nil, err
	}
	s.events[eventID] = &working
	out := working
	return &out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, eventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return fmt.Errorf("event not found: %w", sentinel.ErrNotFound)
	}
	delete(s.events, eventID)
	return nil
}
