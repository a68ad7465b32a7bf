package submissions

import (
	"context"
	"errors"
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
	Create(ctx context.Context, sub *Submission) error
	FindByID(ctx context.Context, submissionID uuid.UUID) (*Submission, error)
	List(ctx context.Context, status Status, limit int) ([]*Submission, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	Update(ctx context.Context, submissionID uuid.UUID, mutate func(*Submission) error) (*Submission, error)
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
		return nil, errors.New("submission store is required")
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

func (s *Service) Submit(ctx context.Context, req *CreateRequest) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	sub := &Submission{
		ID:           uuid.New(),
		ArtistName:   req.ArtistName,
		Email:        req.Email,
		PortfolioURL: req.PortfolioURL,
		Statement:    req.Statement,
		Medium:       req.Medium,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, s.translate(ctx, err, "failed to create submission")
	}

	s.logger.InfoContext(ctx, "artist submission received",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", sub.ID.String(),
		"email", privacy.MaskEmail(sub.Email),
		"client_ip", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
	)
	s.written(ctx, realtime.ChangeInsert, sub)
	return sub, nil
}

func (s *Service) Get(ctx context.Context, submissionID uuid.UUID) (*Submission, error) {
	sub, err := s.store.FindByID(ctx, submissionID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load submission")
	}
	return sub, nil
}

func (s *Service) List(ctx context.Context, status Status, limit int) ([]*Submission, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status is invalid")
	}
	out, err := s.store.List(ctx, status, limit)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list submissions")
	}
	return out, nil
}

// CountPending returns the size of the review queue.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	n, err := s.store.CountByStatus(ctx, StatusPending)
	if err != nil {
		return 0, s.translate(ctx, err, "failed to count submissions")
	}
	return n, nil
}

// Review records an accept or reject decision. A decision is final.
func (s *Service) Review(ctx context.Context, submissionID uuid.UUID, reviewer id.UserID, req *ReviewRequest) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	sub, err := s.store.Update(ctx, submissionID, func(sub *Submission) error {
		if sub.Status.IsReviewed() {
			return dErrors.New(dErrors.CodeConflict, "submission has already been reviewed")
		}
		sub.Status = req.Status
		sub.ReviewerID = &reviewer
		sub.ReviewNote = req.Note
		sub.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to review submission")
	}

	s.logger.InfoContext(ctx, "artist submission reviewed",
		"event", "submission_reviewed",
		"log_type", "audit",
		"submission_id", sub.ID.String(),
		"reviewer_id", reviewer.String(),
		"decision", string(sub.Status),
	)
	s.written(ctx, realtime.ChangeUpdate, sub)
	return sub, nil
}

func (s *Service) translate(ctx context.Context, err error, internalMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	default:
		s.logger.ErrorContext(ctx, internalMsg, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) written(ctx context.Context, typ realtime.ChangeType, sub *Submission) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrites(realtime.TableSubmissions, string(typ))
	}
	realtime.Emit(ctx, s.publisher, s.logger, realtime.TableSubmissions, typ, sub.ID.String(), NewSubmissionView(sub), sub.UpdatedAt)
}
