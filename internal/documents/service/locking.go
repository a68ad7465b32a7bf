package service

import (
	"context"
	"fmt"

	"civic/internal/documents/models"
	"civic/internal/platform/tracer"
	"civic/internal/realtime"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

// Lock makes userID the holder. Locking a document the caller already
// holds succeeds without change; a lock held by someone else is a conflict
// naming the holder. Locks do not expire.
func (s *Service) Lock(ctx context.Context, docID id.DocumentID, userID id.UserID) (doc *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDocumentLock,
		tracer.String(tracer.AttrDocumentID, docID.String()),
	)
	defer func() { span.End(err) }()

	now := requestcontext.Now(ctx)
	var (
		holder  *id.UserID
		already bool
	)
	doc, err = s.store.Execute(ctx, docID, func(d *models.Document) (*models.Version, error) {
		already = d.IsLockedBy(userID)
		if !d.AcquireLock(userID, now) {
			holder = d.LockedBy
			return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("document is locked by %s", d.LockedBy.String()))
		}
		return nil, nil
	})
	if holder != nil {
		s.conflict(reasonLockHeld)
		span.AddEvent(tracer.EventLockContended, tracer.String("holder", holder.String()))
	}
	if err != nil {
		return nil, s.translate(ctx, err, "failed to lock document")
	}
	if already {
		return doc, nil
	}
	s.written(ctx, realtime.ChangeUpdate, doc)
	return doc, nil
}

// Unlock releases the lock. Only the holder may release it unless role is
// admin, in which case another user's lock is force-released. Unlocking an
// unlocked document is a no-op.
func (s *Service) Unlock(ctx context.Context, docID id.DocumentID, userID id.UserID, role id.Role) (doc *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDocumentUnlock,
		tracer.String(tracer.AttrDocumentID, docID.String()),
	)
	defer func() { span.End(err) }()

	var (
		released bool
		previous id.UserID
		forced   bool
	)
	doc, err = s.store.Execute(ctx, docID, func(d *models.Document) (*models.Version, error) {
		if !d.IsLocked() {
			return nil, nil
		}
		if !d.IsLockedBy(userID) {
			if !role.AtLeast(id.RoleAdmin) {
				return nil, dErrors.New(dErrors.CodeForbidden, "only the lock holder can unlock this document")
			}
			forced = true
		}
		previous = *d.LockedBy
		d.ReleaseLock()
		released = true
		return nil, nil
	})
	if err != nil {
		return nil, s.translate(ctx, err, "failed to unlock document")
	}
	span.SetAttributes(tracer.Bool(tracer.AttrForced, forced))

	if !released {
		return doc, nil
	}
	if forced {
		s.logger.InfoContext(ctx, "document lock force-released",
			"event", "document_force_unlocked",
			"log_type", "audit",
			"document_id", docID.String(),
			"actor_id", userID.String(),
			"holder_id", previous.String(),
		)
	}
	s.written(ctx, realtime.ChangeUpdate, doc)
	return doc, nil
}
