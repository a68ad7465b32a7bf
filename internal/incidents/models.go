// Package incidents accepts incident reports from the public and lets
// admins triage them.
package incidents

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	s "civic/pkg/string"
	v "civic/pkg/validation"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusTriaged   Status = "triaged"
	StatusResolved  Status = "resolved"
	StatusDismissed Status = "dismissed"
)

var transitions = map[Status][]Status{
	StatusNew:       {StatusTriaged, StatusResolved, StatusDismissed},
	StatusTriaged:   {StatusResolved, StatusDismissed},
	StatusResolved:  {StatusTriaged},
	StatusDismissed: {StatusTriaged},
}

func (st Status) IsValid() bool {
	_, ok := transitions[st]
	return ok
}

func (st Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[st] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Report is an incident report. ReporterID is nil for anonymous reports.
type Report struct {
	ID           uuid.UUID
	ReporterID   *id.UserID
	Category     string
	Description  string
	Location     string
	OccurredAt   *time.Time
	ContactEmail string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateRequest struct {
	Category     string     `json:"category" validate:"notblank,max=100"`
	Description  string     `json:"description" validate:"notblank,max=10000"`
	Location     string     `json:"location" validate:"max=200"`
	OccurredAt   *time.Time `json:"occurred_at"`
	ContactEmail string     `json:"contact_email" validate:"omitempty,email,max=255"`
}

func (r *CreateRequest) Normalize() {
	s.TrimStrings(&r.Category, &r.Description, &r.Location)
	r.Category = strings.ToLower(r.Category)
	if r.ContactEmail != "" {
		r.ContactEmail = s.NormalizeEmail(r.ContactEmail)
	}
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=new triaged resolved dismissed"`
}

func (r *UpdateStatusRequest) Normalize() {
	r.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Status))))
}

func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type ReportView struct {
	ID           string     `json:"id"`
	ReporterID   *string    `json:"reporter_id"`
	Category     string     `json:"category"`
	Description  string     `json:"description"`
	Location     string     `json:"location,omitempty"`
	OccurredAt   *time.Time `json:"occurred_at"`
	ContactEmail string     `json:"contact_email,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func NewReportView(r *Report) ReportView {
	view := ReportView{
		ID:           r.ID.String(),
		Category:     r.Category,
		Description:  r.Description,
		Location:     r.Location,
		OccurredAt:   r.OccurredAt,
		ContactEmail: r.ContactEmail,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.ReporterID != nil {
		reporter := r.ReporterID.String()
		view.ReporterID = &reporter
	}
	return view
}

// ReceiptView is returned to the submitter; it carries no report content.
type ReceiptView struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
