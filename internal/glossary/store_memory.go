package glossary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"civic/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	terms map[string]*Term
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{terms: make(map[string]*Term)}
}

// Upsert reports whether the slug was new.
func (s *InMemoryStore) Upsert(_ context.Context, t *Term) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.terms[t.Slug]
	cp := *t
	s.terms[t.Slug] = &cp
	return !exists, nil
}

func (s *InMemoryStore) FindBySlug(_ context.Context, slug string) (*Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.terms[slug]
	if !ok {
		return nil, fmt.Errorf("glossary term %q: %w", slug, sentinel.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

// List returns terms alphabetically, filtered by a case-insensitive
// substring of the term when query is set.
func (s *InMemoryStore) List(_ context.Context, query string) ([]*Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query = strings.ToLower(query)
	out := make([]*Term, 0, len(s.terms))
	for _, t := range s.terms {
		if query != "" && !strings.Contains(strings.ToLower(t.Term), query) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Term) < strings.ToLower(out[j].Term)
	})
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.terms[slug]; !ok {
		return fmt.Errorf("glossary term %q: %w", slug, sentinel.ErrNotFound)
	}
	delete(s.terms, slug)
	return nil
}
