package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"civic/internal/documents/models"
	id "civic/pkg/domain"
)

// Store persists documents. Execute runs mutate against the current row
// while holding it; a returned Version is appended in the same write.
// Mutate errors are returned unchanged.
type Store interface {
	Create(ctx context.Context, doc *models.Document, first *models.Version) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	List(ctx context.Context) ([]*models.Document, error)
	ListLockedBy(ctx context.Context, userID id.UserID) ([]*models.Document, error)
	Execute(ctx context.Context, docID id.DocumentID, mutate func(*models.Document) (*models.Version, error)) (*models.Document, error)
	ListVersions(ctx context.Context, docID id.DocumentID) ([]*models.Version, error)
	FindVersion(ctx context.Context, docID id.DocumentID, version int) (*models.Version, error)
}
