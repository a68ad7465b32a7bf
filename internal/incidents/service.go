package incidents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"civic/internal/platform/metrics"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/privacy"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *Report) error
	FindByID(ctx context.Context, reportID uuid.UUID) (*Report, error)
	List(ctx context.Context, status Status, limit int) ([]*Report, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	Update(ctx context.Context, reportID uuid.UUID, mutate func(*Report) error) (*Report, error)
}

type Service struct {
	store     Store
	metrics   *metrics.Metrics
	publisher realtime.Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p realtime.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("incident store is required")
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

// Submit records a new report. reporter is nil for anonymous submissions.
func (s *Service) Submit(ctx context.Context, reporter *id.UserID, req *CreateRequest) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if req.OccurredAt != nil && req.OccurredAt.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "occurred_at must not be in the future")
	}
	r := &Report{
		ID:           uuid.New(),
		ReporterID:   reporter,
		Category:     req.Category,
		Description:  req.Description,
		Location:     req.Location,
		OccurredAt:   req.OccurredAt,
		ContactEmail: req.ContactEmail,
		Status:       StatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, s.translate(ctx, err, "failed to submit incident report")
	}

	s.logger.InfoContext(ctx, "incident report submitted",
		"request_id", requestcontext.RequestID(ctx),
		"report_id", r.ID.String(),
		"category", r.Category,
		"anonymous", reporter == nil,
		"has_contact", r.ContactEmail != "",
		"client_ip", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
	)
	s.written(ctx, realtime.ChangeInsert, r)
	return r, nil
}

func (s *Service) Get(ctx context.Context, reportID uuid.UUID) (*Report, error) {
	r, err := s.store.FindByID(ctx, reportID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load incident report")
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, status Status, limit int) ([]*Report, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status is invalid")
	}
	out, err := s.store.List(ctx, status, limit)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list incident reports")
	}
	return out, nil
}

// CountNew returns how many reports await triage.
func (s *Service) CountNew(ctx context.Context) (int, error) {
	n, err := s.store.CountByStatus(ctx, StatusNew)
	if err != nil {
		return 0, s.translate(ctx, err, "failed to count incident reports")
	}
	return n, nil
}

func (s *Service) UpdateStatus(ctx context.Context, reportID uuid.UUID, actor id.UserID, req *UpdateStatusRequest) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var from Status
	r, err := s.store.Update(ctx, reportID, func(r *Report) error {
		from = r.Status
		if !r.Status.CanTransition(req.Status) {
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("cannot move report from %s to %s", r.Status, req.Status))
		}
		r.Status = req.Status
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to update incident report")
	}

	s.logger.InfoContext(ctx, "incident report status changed",
		"event", "incident_status_changed",
		"log_type", "audit",
		"report_id", r.ID.String(),
		"actor_id", actor.String(),
		"from", string(from),
		"to", string(r.Status),
	)
	s.written(ctx, realtime.ChangeUpdate, r)
	return r, nil
}

func (s *Service) translate(ctx context.Context, err error, internalMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "incident report not found")
	default:
		s.logger.ErrorContext(ctx, internalMsg, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) written(ctx context.Context, typ realtime.ChangeType, r *Report) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrites(realtime.TableIncidents, string(typ))
	}
	realtime.Emit(ctx, s.publisher, s.logger, realtime.TableIncidents, typ, r.ID.String(), NewReportView(r), r.UpdatedAt)
}
