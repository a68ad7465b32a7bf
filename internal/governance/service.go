package governance

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"civic/internal/platform/metrics"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, p *Proposal) error
	FindByID(ctx context.Context, proposalID uuid.UUID) (*Proposal, error)
	List(ctx context.Context, filter ListFilter) ([]*Proposal, error)
	Update(ctx context.Context, proposalID uuid.UUID, mutate func(*Proposal) error) (*Proposal, error)
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
		return nil, errors.New("proposal store is required")
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

// Create saves a new draft authored by author.
func (s *Service) Create(ctx context.Context, author id.UserID, req *CreateRequest) (*Proposal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	p := &Proposal{
		ID:             uuid.New(),
		Title:          req.Title,
		Summary:        req.Summary,
		Body:           req.Body,
		Status:         StatusDraft,
		AuthorID:       author,
		VotingStartsAt: req.VotingStartsAt,
		VotingEndsAt:   req.VotingEndsAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, s.translate(ctx, err, "failed to create proposal")
	}
	s.written(ctx, realtime.ChangeInsert, p)
	return p, nil
}

// Get hides drafts from anyone below editor.
func (s *Service) Get(ctx context.Context, proposalID uuid.UUID, viewer id.Role) (*Proposal, error) {
	p, err := s.store.FindByID(ctx, proposalID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load proposal")
	}
	if !p.IsPublic() && !viewer.AtLeast(id.RoleEditor) {
		return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, status Status, viewer id.Role, limit int) ([]*Proposal, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status is invalid")
	}
	out, err := s.store.List(ctx, ListFilter{
		Status:        status,
		IncludeDrafts: viewer.AtLeast(id.RoleEditor),
		Limit:         limit,
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list proposals")
	}
	return out, nil
}

// ListDrafts returns proposals not yet opened for voting.
func (s *Service) ListDrafts(ctx context.Context, limit int) ([]*Proposal, error) {
	out, err := s.store.List(ctx, ListFilter{Status: StatusDraft, IncludeDrafts: true, Limit: limit})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list draft proposals")
	}
	return out, nil
}

// Update replaces a draft's content. Proposals under vote are frozen.
func (s *Service) Update(ctx context.Context, proposalID uuid.UUID, req *UpdateRequest) (*Proposal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	p, err := s.store.Update(ctx, proposalID, func(p *Proposal) error {
		if p.Status != StatusDraft {
			return dErrors.New(dErrors.CodeConflict, "only draft proposals can be edited")
		}
		p.Title = req.Title
		p.Summary = req.Summary
		p.Body = req.Body
		p.VotingStartsAt = req.VotingStartsAt
		p.VotingEndsAt = req.VotingEndsAt
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to update proposal")
	}
	s.written(ctx, realtime.ChangeUpdate, p)
	return p, nil
}

func (s *Service) UpdateStatus(ctx context.Context, proposalID uuid.UUID, actor id.UserID, req *UpdateStatusRequest) (*Proposal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var from Status
	p, err := s.store.Update(ctx, proposalID, func(p *Proposal) error {
		from = p.Status
		return p.Transition(req.Status, now)
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to update proposal status")
	}

	s.logger.InfoContext(ctx, "proposal status changed",
		"event", "proposal_status_changed",
		"log_type", "audit",
		"proposal_id", p.ID.String(),
		"actor_id", actor.String(),
		"from", string(from),
		"to", string(p.Status),
	)
	s.written(ctx, realtime.ChangeUpdate, p)
	return p, nil
}

func (s *Service) translate(ctx context.Context, err error, internalMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "proposal not found")
	default:
		s.logger.ErrorContext(ctx, internalMsg, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) written(ctx context.Context, typ realtime.ChangeType, p *Proposal) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrites(realtime.TableProposals, string(typ))
	}
	realtime.Emit(ctx, s.publisher, s.logger, realtime.TableProposals, typ, p.ID.String(), NewProposalView(p), p.UpdatedAt)
}
