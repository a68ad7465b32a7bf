// Package service implements the document editor: advisory locks held on
// the document row, optimistic saves against a base version, and an
// append-only version history.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"civic/internal/documents/models"
	"civic/internal/platform/metrics"
	"civic/internal/platform/tracer"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

// Conflict reasons recorded in metrics.
const (
	reasonLockHeld    = "lock_held"
	reasonLockNotHeld = "lock_not_held"
	reasonStaleBase   = "stale_base"
)

const (
	msgLockNotHeld = "document lock not held"
	msgModified    = "document has been modified"
)

type Service struct {
	store     Store
	tracer    tracer.Tracer
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

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublisher sends a change for every successful write.
func WithPublisher(p realtime.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	if svc.publisher == nil {
		svc.publisher = realtime.Discard
	}
	return svc, nil
}

func (s *Service) Create(ctx context.Context, author id.UserID, req *models.CreateRequest) (doc *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDocumentCreate)
	defer func() { span.End(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	doc = &models.Document{
		ID:        id.DocumentID(uuid.New()),
		Title:     req.Title,
		Content:   req.Content,
		Version:   1,
		CreatedBy: author,
		UpdatedBy: author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	span.SetAttributes(tracer.String(tracer.AttrDocumentID, doc.ID.String()))

	if err := s.store.Create(ctx, doc, doc.Snapshot()); err != nil {
		return nil, s.translate(ctx, err, "failed to create document")
	}
	s.written(ctx, realtime.ChangeInsert, doc)
	s.logger.InfoContext(ctx, "document created",
		"document_id", doc.ID.String(),
		"user_id", author.String(),
	)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load document")
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Document, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list documents")
	}
	return docs, nil
}

// ListLockedBy returns the documents userID currently holds locks on.
func (s *Service) ListLockedBy(ctx context.Context, userID id.UserID) ([]*models.Document, error) {
	docs, err := s.store.ListLockedBy(ctx, userID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list locked documents")
	}
	return docs, nil
}

// translate maps store failures to domain errors. Domain errors raised
// inside a mutation pass through unchanged.
func (s *Service) translate(ctx context.Context, err error, internalMsg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	case errors.Is(err, sentinel.ErrConflict):
		s.conflict(reasonStaleBase)
		return dErrors.New(dErrors.CodeConflict, msgModified)
	default:
		s.logger.ErrorContext(ctx, internalMsg, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) conflict(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementDocumentConflict(reason)
	}
}

func (s *Service) written(ctx context.Context, typ realtime.ChangeType, doc *models.Document) {
	if s.metrics != nil {
		s.metrics.IncrementRecordWrites(realtime.TableDocuments, string(typ))
	}
	realtime.Emit(ctx, s.publisher, s.logger, realtime.TableDocuments, typ,
		doc.ID.String(), models.NewDocumentSummary(doc), doc.UpdatedAt)
}
