// Package realtime fans row changes out to websocket subscribers, either
// in process or through a Kafka topic shared by every instance.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	id "civic/pkg/domain"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Tables that publish changes.
const (
	TableDocuments     = "documents"
	TableFOIARequests  = "foia_requests"
	TableFOIAResponses = "foia_responses"
	TableFOIADocuments = "foia_documents"
	TableIncidents     = "incident_reports"
	TableSubmissions   = "artist_submissions"
	TableProposals     = "dao_proposals"
	TableLegalCases    = "legal_cases"
	TableGlossary      = "glossary_terms"
	TableEvents        = "events"
)

// tableRoles is the minimum role needed to subscribe to each table.
var tableRoles = map[string]id.Role{
	TableDocuments:     id.RoleMember,
	TableFOIARequests:  id.RoleEditor,
	TableFOIAResponses: id.RoleEditor,
	TableFOIADocuments: id.RoleEditor,
	TableIncidents:     id.RoleAdmin,
	TableSubmissions:   id.RoleAdmin,
	TableProposals:     id.RoleMember,
	TableLegalCases:    id.RoleMember,
	TableGlossary:      id.RoleMember,
	TableEvents:        id.RoleMember,
}

// RequiredRole reports the role needed to watch table, and whether the
// table publishes changes at all.
func RequiredRole(table string) (id.Role, bool) {
	role, ok := tableRoles[table]
	return role, ok
}

// Change is one committed row write.
type Change struct {
	Table      string          `json:"table"`
	Type       ChangeType      `json:"type"`
	RecordID   string          `json:"record_id"`
	Record     json.RawMessage `json:"record,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewChange serializes record into a Change. A nil record is allowed for deletes.
func NewChange(table string, typ ChangeType, recordID string, record any, at time.Time) (Change, error) {
	change := Change{Table: table, Type: typ, RecordID: recordID, OccurredAt: at.UTC()}
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return Change{}, fmt.Errorf("marshal %s record: %w", table, err)
		}
		change.Record = raw
	}
	return change, nil
}

// Publisher accepts committed changes.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

type discard struct{}

func (discard) Publish(context.Context, Change) error { return nil }

// Discard drops every change.
var Discard Publisher = discard{}

// Emit builds and publishes a change after a successful write. The write
// has already committed, so failures are logged rather than returned.
func Emit(ctx context.Context, pub Publisher, logger *slog.Logger, table string, typ ChangeType, recordID string, record any, at time.Time) {
	if pub == nil {
		return
	}
	change, err := NewChange(table, typ, recordID, record, at)
	if err == nil {
		err = pub.Publish(ctx, change)
	}
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to publish change",
			"error", err,
			"table", table,
			"record_id", recordID,
		)
	}
}
