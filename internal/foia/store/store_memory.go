// Package store persists FOIA requests with their responses and
// attachments.
//
// Error Contract:
//   - Unknown requests yield sentinel.ErrNotFound, including when adding a
//     response or attachment to one
//   - UpdateRequest returns mutate errors unchanged and writes nothing
//   - A duplicate tracking number yields sentinel.ErrConflict
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"civic/internal/foia/models"
	"civic/pkg/platform/sentinel"
	"civic/pkg/platform/validation"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	requests    map[uuid.UUID]*models.Request
	responses   map[uuid.UUID][]*models.Response
	attachments map[uuid.UUID][]*models.Attachment
}

func New() *InMemoryStore {
	return &InMemoryStore{
		requests:    make(map[uuid.UUID]*models.Request),
		responses:   make(map[uuid.UUID][]*models.Response),
		attachments: make(map[uuid.UUID][]*models.Attachment),
	}
}

func cloneRequest(r *models.Request) *models.Request {
	cp := *r
	return &cp
}

func (s *InMemoryStore) CreateRequest(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return fmt.Errorf("foia request exists: %w", sentinel.ErrConflict)
	}
	if err := s.checkTrackingNumber(req); err != nil {
		return err
	}
	s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (s *InMemoryStore) checkTrackingNumber(req *models.Request) error {
	if req.TrackingNumber == "" {
		return nil
	}
	for _, other := range s.requests {
		if other.ID != req.ID && other.TrackingNumber == req.TrackingNumber {
			return fmt.Errorf("tracking number in use: %w", sentinel.ErrConflict)
		}
	}
	return nil
}

func (s *InMemoryStore) FindRequest(_ context.Context, requestID uuid.UUID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("foia request not found: %w", sentinel.ErrNotFound)
	}
	return cloneRequest(req), nil
}

// ListRequests returns matching requests, newest first.
func (s *InMemoryStore) ListRequests(_ context.Context, filter models.ListFilter) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Request, 0)
	for _, req := range s.requests {
		if filter.RequesterID != nil && req.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit := validation.ClampLimit(filter.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) UpdateRequest(_ context.Context, requestID uuid.UUID, mutate func(*models.Request) error) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("foia request not found: %w", sentinel.ErrNotFound)
	}
	working := cloneRequest(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	if err := s.checkTrackingNumber(working); err != nil {
		return nil, err
	}
	s.requests[requestID] = working
	return cloneRequest(working), nil
}

func (s *InMemoryStore) AddResponse(_ context.Context, resp *models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[resp.RequestID]; !ok {
		return fmt.Errorf("foia request not found: %w", sentinel.ErrNotFound)
	}
	cp := *resp
	s.responses[resp.RequestID] = append(s.responses[resp.RequestID], &cp)
	return nil
}

// ListResponses returns responses oldest first.
func (s *InMemoryStore) ListResponses(_ context.Context, requestID uuid.UUID) ([]*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Response, 0, len(s.responses[requestID]))
	for _, r := range s.responses[requestID] {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) AddAttachment(_ context.Context, att *models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[att.RequestID]; !ok {
		return fmt.Errorf("foia request not found: %w", sentinel.ErrNotFound)
	}
	cp := *att
	s.attachments[att.RequestID] = append(s.attachments[att.RequestID], &cp)
	return nil
}

func (s *InMemoryStore) ListAttachments(_ context.Context, requestID uuid.UUID) ([]*models.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Attachment, 0, len(s.attachments[requestID]))
	for _, a := range s.attachments[requestID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
