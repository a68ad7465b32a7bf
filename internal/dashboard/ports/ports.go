// Package ports lists what the dashboard reads from other modules.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	docmodels "civic/internal/documents/models"
	"civic/internal/events"
	foiamodels "civic/internal/foia/models"
	"civic/internal/governance"
	id "civic/pkg/domain"
)

type FOIARequests interface {
	ListMine(ctx context.Context, requester id.UserID, limit int) ([]*foiamodels.Request, error)
}

type Events interface {
	Upcoming(ctx context.Context, limit int) ([]*events.Event, error)
}

type Documents interface {
	ListLockedBy(ctx context.Context, userID id.UserID) ([]*docmodels.Document, error)
}

type Proposals interface {
	ListDrafts(ctx context.Context, limit int) ([]*governance.Proposal, error)
}

// Queues reports work waiting for admins.
type Queues interface {
	CountNewIncidents(ctx context.Context) (int, error)
	CountPendingSubmissions(ctx context.Context) (int, error)
}
