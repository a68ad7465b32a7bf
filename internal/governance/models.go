// Package governance tracks DAO proposals through drafting and voting.
package governance

import (
	"fmt"
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
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPassed    Status = "passed"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusActive, StatusWithdrawn},
	StatusActive:    {StatusPassed, StatusRejected, StatusWithdrawn},
	StatusPassed:    nil,
	StatusRejected:  nil,
	StatusWithdrawn: nil,
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

type Proposal struct {
	ID             uuid.UUID
	Title          string
	Summary        string
	Body           string
	Status         Status
	AuthorID       id.UserID
	VotingStartsAt *time.Time
	VotingEndsAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transition moves the proposal to next. Opening the vote without a start
// time starts it at now; closing it without an end time ends it at now.
func (p *Proposal) Transition(next Status, now time.Time) error {
	if !p.Status.CanTransition(next) {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("cannot move proposal from %s to %s", p.Status, next))
	}
	switch next {
	case StatusActive:
		if p.VotingStartsAt == nil {
			p.VotingStartsAt = &now
		}
	case StatusPassed, StatusRejected:
		if p.VotingEndsAt == nil {
			p.VotingEndsAt = &now
		}
	}
	if err := checkWindow(p.VotingStartsAt, p.VotingEndsAt); err != nil {
		return err
	}
	p.Status = next
	p.UpdatedAt = now
	return nil
}

// IsPublic reports whether non-editors may see the proposal.
func (p *Proposal) IsPublic() bool {
	return p.Status != StatusDraft
}

func checkWindow(starts, ends *time.Time) error {
	if starts != nil && ends != nil && ends.Before(*starts) {
		return dErrors.New(dErrors.CodeValidation, "voting_ends_at must not be before voting_starts_at")
	}
	return nil
}

type ListFilter struct {
	Status        Status
	IncludeDrafts bool
	Limit         int
}

type CreateRequest struct {
	Title          string     `json:"title" validate:"notblank,max=200"`
	Summary        string     `json:"summary" validate:"max=2000"`
	Body           string     `json:"body" validate:"max=100000"`
	VotingStartsAt *time.Time `json:"voting_starts_at"`
	VotingEndsAt   *time.Time `json:"voting_ends_at"`
}

func (r *CreateRequest) Normalize() {
	s.TrimStrings(&r.Title, &r.Summary)
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := v.Validate(r); err != nil {
		return err
	}
	return checkWindow(r.VotingStartsAt, r.VotingEndsAt)
}

// UpdateRequest replaces the editable content of a draft.
type UpdateRequest = CreateRequest

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=draft active passed rejected withdrawn"`
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

type ProposalView struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Summary        string     `json:"summary"`
	Body           string     `json:"body"`
	Status         Status     `json:"status"`
	AuthorID       string     `json:"author_id"`
	VotingStartsAt *time.Time `json:"voting_starts_at"`
	VotingEndsAt   *time.Time `json:"voting_ends_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func NewProposalView(p *Proposal) ProposalView {
	return ProposalView{
		ID:             p.ID.String(),
		Title:          p.Title,
		Summary:        p.Summary,
		Body:           p.Body,
		Status:         p.Status,
		AuthorID:       p.AuthorID.String(),
		VotingStartsAt: p.VotingStartsAt,
		VotingEndsAt:   p.VotingEndsAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
