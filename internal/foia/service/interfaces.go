package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/google/uuid"

	"civic/internal/foia/models"
)

type Store interface {
	CreateRequest(ctx context.Context, req *models.Request) error
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.Request, error)
	ListRequests(ctx context.Context, filter models.ListFilter) ([]*models.Request, error)
	UpdateRequest(ctx context.Context, requestID uuid.UUID, mutate func(*models.Request) error) (*models.Request, error)
	AddResponse(ctx context.Context, resp *models.Response) error
	ListResponses(ctx context.Context, requestID uuid.UUID) ([]*models.Response, error)
	AddAttachment(ctx context.Context, att *models.Attachment) error
	ListAttachments(ctx context.Context, requestID uuid.UUID) ([]*models.Attachment, error)
}
