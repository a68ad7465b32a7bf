// Package dashboard assembles the signed-in landing page. What it shows
// grows with the caller's role.
package dashboard

import (
	"time"

	docmodels "civic/internal/documents/models"
	"civic/internal/events"
	foiamodels "civic/internal/foia/models"
	"civic/internal/governance"
	id "civic/pkg/domain"
)

// Dashboard sections left nil are omitted; they are not visible to the role.
type Dashboard struct {
	Role               id.Role                     `json:"role"`
	FOIARequests       []foiamodels.RequestView    `json:"foia_requests"`
	UpcomingEvents     []events.EventView          `json:"upcoming_events"`
	LockedDocuments    []docmodels.DocumentSummary `json:"locked_documents,omitempty"`
	DraftProposals     []governance.ProposalView   `json:"draft_proposals,omitempty"`
	NewIncidents       *int                        `json:"new_incidents,omitempty"`
	PendingSubmissions *int                        `json:"pending_submissions,omitempty"`
	GeneratedAt        time.Time                   `json:"generated_at"`
}
