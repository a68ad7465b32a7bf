// Package service implements the FOIA tracker. Members file and follow
// their own requests; editors see every request and record its progress.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"civic/internal/foia/models"
	"civic/internal/platform/metrics"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

// Viewer is the caller a request is read or changed on behalf of.
type Viewer struct {
	UserID id.UserID
	Role   id.Role
}

// IsStaff reports whether the viewer may act on any request.
func (v Viewer) IsStaff() bool {
	return v.Role.AtLeast(id.RoleEditor)
}

type Service struct {
	store     Store
	metrics   *metrics.Metrics
	publisher realtime.Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p realtime.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("foia store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.publisher == nil {
		svc.publisher = realtime.Discard
	}
	return svc, nil
}

// Create files a new request as a draft, or submits it immediately when
// req.Submit is set.
func (s *Service) Create(ctx context.Context, requester id.UserID, req *models.CreateRequest) (*models.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	r := &models.Request{
		ID:          uuid.New(),
		RequesterID: requester,
		Agency:      req.Agency,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      models.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Submit {
		if err := r.Transition(models.StatusSubmitted, now); err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateRequest(ctx, r); err != nil {
		return nil, s.translate(ctx, err, "failed to create foia request")
	}
	s.written(ctx, realtime.TableFOIARequests, realtime.ChangeInsert, r.ID, models.NewRequestView(r, now), now)
	s.logger.InfoContext(ctx, "foia request created",
		"request_id", requestcontext.RequestID(ctx),
		"foia_request_id", r.ID.String(),
		"status", string(r.Status),
	)
	return r, nil
}

// Get returns a request visible to viewer. Requests owned by someone else
// are reported as not found to members.
func (s *Service) Get(ctx context.Context, requestID uuid.UUID, viewer Viewer) (*models.Request, error) {
	r, err := s.store.FindRequest(ctx, requestID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load foia request")
	}
	if !viewer.IsStaff() && !r.IsOwnedBy(viewer.UserID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "foia request not found")
	}
	return r, nil
}

// ListMine returns the viewer's own requests.
func (s *Service) ListMine(ctx context.Context, requester id.UserID, limit int) ([]*models.Request, error) {
	out, err := s.store.ListRequests(ctx, models.ListFilter{RequesterID: &requester, Limit: limit})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list foia requests")
	}
	return out, nil
}

// ListAll returns every request, optionally by status. Callers gate it on editor.
func (s *Service) ListAll(ctx context.Context, status models.Status, limit int) ([]*models.Request, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status is invalid")
	}
	out, err := s.store.ListRequests(ctx, models.ListFilter{Status: status, Limit: limit})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list foia requests")
	}
	return out, nil
}

// UpdateDraft edits a request its owner has not yet submitted.
func (s *Service) UpdateDraft(ctx context.Context, requestID uuid.UUID, viewer Viewer, req *models.UpdateDraftRequest) (*models.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	r, err := s.store.UpdateRequest(ctx, requestID, func(r *models.Request) error {
		if !r.IsOwnedBy(viewer.UserID) {
			return dErrors.New(dErrors.CodeNotFound, "foia request not found")
		}
		if r.Status != models.StatusDraft {
			return dErrors.New(dErrors.CodeConflict, "only draft requests can be edited")
		}
		r.Agency = req.Agency
		r.Subject = req.Subject
		r.Description = req.Description
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to update foia request")
	}
	s.written(ctx, realtime.TableFOIARequests, realtime.ChangeUpdate, r.ID, models.NewRequestView(r, now), now)
	return r, nil
}

// Submit moves the owner's draft to submitted, which starts the response clock.
func (s *Service) Submit(ctx context.Context, requestID uuid.UUID, viewer Viewer) (*models.Request, error) {
	now := requestcontext.Now(ctx)
	r, err := s.store.UpdateRequest(ctx, requestID, func(r *models.Request) error {
		if !r.IsOwnedBy(viewer.UserID) {
			return dErrors.New(dErrors.CodeNotFound, "foia request not found")
		}
		return r.Transition(models.StatusSubmitted, now)
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to submit foia request")
	}
	s.written(ctx, realtime.TableFOIARequests, realtime.ChangeUpdate, r.ID, models.NewRequestView(r, now), now)
	return r, nil
}

// UpdateStatus records progress reported by the agency. Callers gate it on editor.
func (s *Service) UpdateStatus(ctx context.Context, requestID uuid.UUID, actor id.UserID, req *models.UpdateStatusRequest) (*models.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var from models.Status
	r, err := s.store.UpdateRequest(ctx, requestID, func(r *models.Request) error {
		from = r.Status
		if req.TrackingNumber != "" {
			r.TrackingNumber = req.TrackingNumber
		}
		return r.Transition(req.Status, now)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tracking number already in use")
		}
		return nil, s.translate(ctx, err, "failed to update foia request status")
	}

	s.logger.InfoContext(ctx, "foia request status changed",
		"event", "foia_status_changed",
		"log_type", "audit",
		"foia_request_id", r.ID.String(),
		"actor_id", actor.String(),
		"from", string(from),
		"to", string(r.Status),
	)
	s.written(ctx, realtime.TableFOIARequests, realtime.ChangeUpdate, r.ID, models.NewRequestView(r, now), now)
	return r, nil
}

func (s *Service) translate(ctx context.Context, err error, internalMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "foia request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "foia request conflicts with an existing record")
	default:
		s.logger.ErrorContext(ctx, internalMsg, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) written(ctx context.Context, table string, typ realtime.ChangeType, recordID uuid.UUID, record any, at time.Time) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrites(table, string(typ))
	}
	realtime.Emit(ctx, s.publisher, s.logger, table, typ, recordID.String(), record, at)
}
