// Package store persists documents and their version history.
//
// Error Contract:
//   - Find methods and Execute return sentinel.ErrNotFound for unknown documents
//   - Execute returns mutate errors unchanged and writes nothing
//   - Create returns sentinel.ErrConflict when the ID exists
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"civic/internal/documents/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	docs     map[id.DocumentID]*models.Document
	versions map[id.DocumentID][]models.Version
}

func New() *InMemoryStore {
	return &InMemoryStore{
		docs:     make(map[id.DocumentID]*models.Document),
		versions: make(map[id.DocumentID][]models.Version),
	}
}

func cloneDocument(d *models.Document) *models.Document {
	cp := *d
	if d.LockedBy != nil {
		holder := *d.LockedBy
		cp.LockedBy = &holder
	}
	if d.LockedAt != nil {
		at := *d.LockedAt
		cp.LockedAt = &at
	}
	return &cp
}

func (s *InMemoryStore) Create(_ context.Context, doc *models.Document, first *models.Version) error {
	if doc == nil || first == nil {
		return fmt.Errorf("document and first version are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return fmt.Errorf("document exists: %w", sentinel.ErrConflict)
	}
	s.docs[doc.ID] = cloneDocument(doc)
	s.versions[doc.ID] = []models.Version{*first}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	return cloneDocument(doc), nil
}

// List returns every document, most recently updated first.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, cloneDocument(doc))
	}
	sortByUpdated(out)
	return out, nil
}

func (s *InMemoryStore) ListLockedBy(_ context.Context, userID id.UserID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0)
	for _, doc := range s.docs {
		if doc.IsLockedBy(userID) {
			out = append(out, cloneDocument(doc))
		}
	}
	sortByUpdated(out)
	return out, nil
}

func (s *InMemoryStore) Execute(_ context.Context, docID id.DocumentID, mutate func(*models.Document) (*models.Version, error)) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[docID]
	if !ok {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}

	working := cloneDocument(current)
	version, err := mutate(working)
	if err != nil {
		return cloneDocument(current), err
	}
	if version != nil {
		history := s.versions[docID]
		if n := len(history); n > 0 && history[n-1].Version >= version.Version {
			return nil, fmt.Errorf("version %d already recorded: %w", version.Version, sentinel.ErrConflict)
		}
		s.versions[docID] = append(history, *version)
	}
	s.docs[docID] = working
	return cloneDocument(working), nil
}

// ListVersions returns the history oldest first.
func (s *InMemoryStore) ListVersions(_ context.Context, docID id.DocumentID) ([]*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.versions[docID]
	if !ok {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	out := make([]*models.Version, len(history))
	for i := range history {
		v := history[i]
		out[i] = &v
	}
	return out, nil
}

func (s *InMemoryStore) FindVersion(_ context.Context, docID id.DocumentID, version int) (*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions[docID] {
		if v.Version == version {
			cp := v
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("document version not found: %w", sentinel.ErrNotFound)
}

func sortByUpdated(docs []*models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].Title < docs[j].Title
		}
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
}
