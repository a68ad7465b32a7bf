// Package cases publishes the legal cases the organisation is party to.
package cases

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "civic/pkg/domain-errors"
	s "civic/pkg/string"
	v "civic/pkg/validation"
)

type Status string

const (
	StatusOpen    Status = "open"
	StatusPending Status = "pending"
	StatusClosed  Status = "closed"
)

func (st Status) IsValid() bool {
	switch st {
	case StatusOpen, StatusPending, StatusClosed:
		return true
	}
	return false
}

type LegalCase struct {
	ID           uuid.UUID
	Title        string
	Court        string
	DocketNumber string
	Status       Status
	Summary      string
	FiledAt      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SameDocket reports whether two cases name the same docket in the same court.
// Cases without a docket number never collide.
func (c *LegalCase) SameDocket(other *LegalCase) bool {
	return c.DocketNumber != "" && c.Court == other.Court && c.DocketNumber == other.DocketNumber
}

// CaseRequest is used for both create and full update.
type CaseRequest struct {
	Title        string     `json:"title" validate:"notblank,max=200"`
	Court        string     `json:"court" validate:"max=200"`
	DocketNumber string     `json:"docket_number" validate:"max=100"`
	Status       Status     `json:"status" validate:"omitempty,oneof=open pending closed"`
	Summary      string     `json:"summary" validate:"max=10000"`
	FiledAt      *time.Time `json:"filed_at"`
}

func (r *CaseRequest) Normalize() {
	s.TrimStrings(&r.Title, &r.Court, &r.DocketNumber, &r.Summary)
	r.DocketNumber = strings.ToUpper(r.DocketNumber)
	r.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Status))))
	if r.Status == "" {
		r.Status = StatusOpen
	}
}

func (r *CaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type CaseView struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Court        string     `json:"court"`
	DocketNumber string     `json:"docket_number"`
	Status       Status     `json:"status"`
	Summary      string     `json:"summary"`
	FiledAt      *time.Time `json:"filed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func NewCaseView(c *LegalCase) CaseView {
	return CaseView{
		ID:           c.ID.String(),
		Title:        c.Title,
		Court:        c.Court,
		DocketNumber: c.DocketNumber,
		Status:       c.Status,
		Summary:      c.Summary,
		FiledAt:      c.FiledAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
