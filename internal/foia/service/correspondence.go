package service

import (
	"context"

	"github.com/google/uuid"

	"civic/internal/foia/models"
	"civic/internal/realtime"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

// AddResponse logs agency correspondence. The owner and editors may add to
// a request; closed requests accept nothing further.
func (s *Service) AddResponse(ctx context.Context, requestID uuid.UUID, viewer Viewer, req *models.AddResponseRequest) (*models.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.writable(ctx, requestID, viewer); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	resp := &models.Response{
		ID:        uuid.New(),
		RequestID: requestID,
		AuthorID:  viewer.UserID,
		Body:      req.Body,
		CreatedAt: now,
	}
	if err := s.store.AddResponse(ctx, resp); err != nil {
		return nil, s.translate(ctx, err, "failed to add foia response")
	}
	s.written(ctx, realtime.TableFOIAResponses, realtime.ChangeInsert, resp.ID, models.NewResponseView(resp), now)
	return resp, nil
}

func (s *Service) ListResponses(ctx context.Context, requestID uuid.UUID, viewer Viewer) ([]*models.Response, error) {
	if _, err := s.Get(ctx, requestID, viewer); err != nil {
		return nil, err
	}
	out, err := s.store.ListResponses(ctx, requestID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list foia responses")
	}
	return out, nil
}

// AddAttachment records metadata for a released file.
func (s *Service) AddAttachment(ctx context.Context, requestID uuid.UUID, viewer Viewer, req *models.AddAttachmentRequest) (*models.Attachment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.writable(ctx, requestID, viewer); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	att := &models.Attachment{
		ID:          uuid.New(),
		RequestID:   requestID,
		FileName:    req.FileName,
		URL:         req.URL,
		ContentType: req.ContentType,
		UploadedBy:  viewer.UserID,
		CreatedAt:   now,
	}
	if err := s.store.AddAttachment(ctx, att); err != nil {
		return nil, s.translate(ctx, err, "failed to add foia attachment")
	}
	s.written(ctx, realtime.TableFOIADocuments, realtime.ChangeInsert, att.ID, models.NewAttachmentView(att), now)
	return att, nil
}

func (s *Service) ListAttachments(ctx context.Context, requestID uuid.UUID, viewer Viewer) ([]*models.Attachment, error) {
	if _, err := s.Get(ctx, requestID, viewer); err != nil {
		return nil, err
	}
	out, err := s.store.ListAttachments(ctx, requestID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list foia attachments")
	}
	return out, nil
}

func (s *Service) writable(ctx context.Context, requestID uuid.UUID, viewer Viewer) (*models.Request, error) {
	r, err := s.Get(ctx, requestID, viewer)
	if err != nil {
		return nil, err
	}
	if r.Status == models.StatusClosed {
		return nil, dErrors.New(dErrors.CodeConflict, "foia request is closed")
	}
	return r, nil
}
