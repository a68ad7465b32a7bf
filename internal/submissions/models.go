// Package submissions takes artist submissions from the public and lets
// admins review them.
package submissions

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
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (st Status) IsValid() bool {
	switch st {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// IsReviewed reports whether a decision has been recorded.
func (st Status) IsReviewed() bool {
	return st == StatusAccepted || st == StatusRejected
}

type Submission struct {
	ID           uuid.UUID
	ArtistName   string
	Email        string
	PortfolioURL string
	Statement    string
	Medium       string
	Status       Status
	ReviewerID   *id.UserID
	ReviewNote   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateRequest struct {
	ArtistName   string `json:"artist_name" validate:"notblank,max=200"`
	Email        string `json:"email" validate:"required,email,max=255"`
	PortfolioURL string `json:"portfolio_url" validate:"omitempty,http_url,max=2048"`
	Statement    string `json:"statement" validate:"notblank,max=10000"`
	Medium       string `json:"medium" validate:"max=100"`
}

func (r *CreateRequest) Normalize() {
	s.TrimStrings(&r.ArtistName, &r.PortfolioURL, &r.Statement, &r.Medium)
	r.Email = s.NormalizeEmail(r.Email)
	r.Medium = strings.ToLower(r.Medium)
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type ReviewRequest struct {
	Status Status `json:"status" validate:"required,oneof=accepted rejected"`
	Note   string `json:"note" validate:"max=2000"`
}

func (r *ReviewRequest) Normalize() {
	r.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Status))))
	s.TrimStrings(&r.Note)
}

func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type SubmissionView struct {
	ID           string    `json:"id"`
	ArtistName   string    `json:"artist_name"`
	Email        string    `json:"email"`
	PortfolioURL string    `json:"portfolio_url,omitempty"`
	Statement    string    `json:"statement"`
	Medium       string    `json:"medium,omitempty"`
	Status       Status    `json:"status"`
	ReviewerID   *string   `json:"reviewer_id"`
	ReviewNote   string    `json:"review_note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewSubmissionView(sub *Submission) SubmissionView {
	view := SubmissionView{
		ID:           sub.ID.String(),
		ArtistName:   sub.ArtistName,
		Email:        sub.Email,
		PortfolioURL: sub.PortfolioURL,
		Statement:    sub.Statement,
		Medium:       sub.Medium,
		Status:       sub.Status,
		ReviewNote:   sub.ReviewNote,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
	if sub.ReviewerID != nil {
		reviewer := sub.ReviewerID.String()
		view.ReviewerID = &reviewer
	}
	return view
}

// ReceiptView is what the artist gets back after submitting.
type ReceiptView struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
