package cases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"civic/internal/platform/metrics"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, c *LegalCase) error
	FindByID(ctx context.Context, caseID uuid.UUID) (*LegalCase, error)
	List(ctx context.Context, status Status, limit int) ([]*LegalCase, error)
	Update(ctx context.Context, caseID uuid.UUID, mutate func(*LegalCase) error) (*LegalCase, error)
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
		return nil, errors.New("legal case store is required")
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

func (s *Service) Create(ctx context.Context, actor id.UserID, req *CaseRequest) (*LegalCase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	c := &LegalCase{
		ID:        uuid.New(),
		CreatedAt: now,
	}
	apply(c, req, now)
	if err := s.store.Create(ctx, c); err != nil {
		return nil, s.translate(ctx, err, "failed to create legal case")
	}
	s.logger.InfoContext(ctx, "legal case recorded",
		"event", "legal_case_created",
		"log_type", "audit",
		"case_id", c.ID.String(),
		"actor_id", actor.String(),
	)
	s.written(ctx, realtime.ChangeInsert, c)
	return c, nil
}

func (s *Service) Get(ctx context.Context, caseID uuid.UUID) (*LegalCase, error) {
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load legal case")
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, status Status, limit int) ([]*LegalCase, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status is invalid")
	}
	out, err := s.store.List(ctx, status, limit)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list legal cases")
	}
	return out, nil
}

// Update replaces every editable field of the case.
func (s *Service) Update(ctx context.Context, caseID uuid.UUID, actor id.UserID, req *CaseRequest) (*LegalCase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var from Status
	c, err := s.store.Update(ctx, caseID, func(c *LegalCase) error {
		from = c.Status
		apply(c, req, now)
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to update legal case")
	}
	if from != c.Status {
		s.logger.InfoContext(ctx, "legal case status changed",
			"event", "legal_case_status_changed",
			"log_type", "audit",
			"case_id", c.ID.String(),
			"actor_id", actor.String(),
			"from", string(from),
			"to", string(c.Status),
		)
	}
	s.written(ctx, realtime.ChangeUpdate, c)
	return c, nil
}

func apply(c *LegalCase, req *CaseRequest, now time.Time) {
	c.Title = req.Title
	c.Court = req.Court
	c.DocketNumber = req.DocketNumber
	c.Status = req.Status
	if c.Status == "" {
		c.Status = StatusOpen
	}
	c.Summary = req.Summary
	c.FiledAt = req.FiledAt
	c.UpdatedAt = now
}

func (s *Service) translate(ctx context.Context, err error, internalMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "legal case not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "a case with this docket number already exists in this court")
	default:
		s.logger.ErrorContext(ctx, internalMsg, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) written(ctx context.Context, typ realtime.ChangeType, c *LegalCase) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrites(realtime.TableLegalCases, string(typ))
	}
	realtime.Emit(ctx, s.publisher, s.logger, realtime.TableLegalCases, typ, c.ID.String(), NewCaseView(c), c.UpdatedAt)
}
