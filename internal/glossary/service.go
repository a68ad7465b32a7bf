package glossary

import (
	"context"
	"errors"
	"log/slog"

	"civic/internal/platform/metrics"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

type Store interface {
	Upsert(ctx context.Context, t *Term) (bool, error)
	FindBySlug(ctx context.Context, slug string) (*Term, error)
	List(ctx context.Context, query string) ([]*Term, error)
	Delete(ctx context.Context, slug string) error
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
		return nil, errors.New("glossary store is required")
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

// Upsert creates or replaces the term at req.Slug and reports whether it
// was created.
func (s *Service) Upsert(ctx context.Context, actor id.UserID, req *UpsertRequest) (*Term, bool, error) {
	if req != nil {
		req.Normalize()
	}
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	if req.Slug == "" {
		return nil, false, dErrors.New(dErrors.CodeValidation, "slug is required")
	}
	t := &Term{
		Slug:       req.Slug,
		Term:       req.Term,
		Definition: req.Definition,
		UpdatedAt:  requestcontext.Now(ctx),
	}
	created, err := s.store.Upsert(ctx, t)
	if err != nil {
		return nil, false, s.translate(ctx, err, "failed to save glossary term")
	}

	typ := realtime.ChangeUpdate
	if created {
		typ = realtime.ChangeInsert
	}
	s.logger.InfoContext(ctx, "glossary term saved",
		"slug", t.Slug,
		"created", created,
		"actor_id", actor.String(),
	)
	s.written(ctx, typ, t.Slug, t)
	return t, created, nil
}

func (s *Service) Lookup(ctx context.Context, slug string) (*Term, error) {
	t, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load glossary term")
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, query string) ([]*Term, error) {
	out, err := s.store.List(ctx, query)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list glossary terms")
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, actor id.UserID, slug string) error {
	if err := s.store.Delete(ctx, slug); err != nil {
		return s.translate(ctx, err, "failed to delete glossary term")
	}
	s.logger.InfoContext(ctx, "glossary term deleted",
		"event", "glossary_term_deleted",
		"log_type", "audit",
		"slug", slug,
		"actor_id", actor.String(),
	)
	s.written(ctx, realtime.ChangeDelete, slug, nil)
	return nil
}

func (s *Service) translate(ctx context.Context, err error, internalMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "glossary term not found")
	default:
		s.logger.ErrorContext(ctx, internalMsg, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) written(ctx context.Context, typ realtime.ChangeType, slug string, t *Term) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrites(realtime.TableGlossary, string(typ))
	}
	var record any
	if t != nil {
		record = NewTermView(t)
	}
	realtime.Emit(ctx, s.publisher, s.logger, realtime.TableGlossary, typ, slug, record, requestcontext.Now(ctx))
}
