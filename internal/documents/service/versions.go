package service

import (
	"context"
	"errors"

	"civic/internal/documents/models"
	"civic/internal/platform/tracer"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

// Save writes a new version. The caller must hold the lock and BaseVersion
// must equal the stored version; the lock stays held afterwards.
func (s *Service) Save(ctx context.Context, docID id.DocumentID, userID id.UserID, req *models.SaveRequest) (doc *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDocumentSave,
		tracer.String(tracer.AttrDocumentID, docID.String()),
	)
	defer func() { span.End(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.Int(tracer.AttrBase, req.BaseVersion))
	return s.save(ctx, span, docID, userID, req.Title, req.Content, req.BaseVersion)
}

// Restore saves the title and content of an earlier version as a new one.
func (s *Service) Restore(ctx context.Context, docID id.DocumentID, userID id.UserID, version int, req *models.RestoreRequest) (doc *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDocumentRestore,
		tracer.String(tracer.AttrDocumentID, docID.String()),
		tracer.Int("document.restored_version", version),
	)
	defer func() { span.End(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	old, err := s.Version(ctx, docID, version)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, span, docID, userID, old.Title, old.Content, req.BaseVersion)
}

func (s *Service) save(ctx context.Context, span tracer.Span, docID id.DocumentID, userID id.UserID, title, content string, base int) (*models.Document, error) {
	now := requestcontext.Now(ctx)
	var (
		reason string
		stored int
	)
	doc, err := s.store.Execute(ctx, docID, func(d *models.Document) (*models.Version, error) {
		if !d.IsLockedBy(userID) {
			reason = reasonLockNotHeld
			return nil, dErrors.New(dErrors.CodeConflict, msgLockNotHeld)
		}
		stored = d.Version
		if base != d.Version {
			reason = reasonStaleBase
			return nil, dErrors.New(dErrors.CodeConflict, msgModified)
		}
		if title == "" {
			title = d.Title
		}
		return d.Apply(title, content, userID, now), nil
	})
	switch reason {
	case reasonStaleBase:
		span.AddEvent(tracer.EventStaleBase, tracer.Int(tracer.AttrVersion, stored))
		s.conflict(reason)
	case reasonLockNotHeld:
		s.conflict(reason)
	}
	if err != nil {
		return nil, s.translate(ctx, err, "failed to save document")
	}

	span.SetAttributes(tracer.Int(tracer.AttrVersion, doc.Version))
	s.written(ctx, realtime.ChangeUpdate, doc)
	return doc, nil
}

// Versions lists the history oldest first.
func (s *Service) Versions(ctx context.Context, docID id.DocumentID) ([]*models.Version, error) {
	versions, err := s.store.ListVersions(ctx, docID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list document versions")
	}
	return versions, nil
}

func (s *Service) Version(ctx context.Context, docID id.DocumentID, version int) (*models.Version, error) {
	if version < 1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "version must be at least 1")
	}
	v, err := s.store.FindVersion(ctx, docID, version)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document version not found")
		}
		return nil, s.translate(ctx, err, "failed to load document version")
	}
	return v, nil
}
