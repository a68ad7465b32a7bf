// Package models holds the FOIA tracker's records: requests filed with an
// agency, the responses logged against them, and attachment metadata.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

type Status string

const (
	StatusDraft        Status = "draft"
	StatusSubmitted    Status = "submitted"
	StatusAcknowledged Status = "acknowledged"
	StatusProcessing   Status = "processing"
	StatusFulfilled    Status = "fulfilled"
	StatusDenied       Status = "denied"
	StatusAppealed     Status = "appealed"
	StatusClosed       Status = "closed"
)

// ResponseWindow is the statutory response time in business days.
const ResponseWindow = 20

var transitions = map[Status][]Status{
	StatusDraft:        {StatusSubmitted, StatusClosed},
	StatusSubmitted:    {StatusAcknowledged, StatusProcessing, StatusFulfilled, StatusDenied, StatusClosed},
	StatusAcknowledged: {StatusProcessing, StatusFulfilled, StatusDenied, StatusClosed},
	StatusProcessing:   {StatusFulfilled, StatusDenied, StatusClosed},
	StatusFulfilled:    {StatusAppealed, StatusClosed},
	StatusDenied:       {StatusAppealed, StatusClosed},
	StatusAppealed:     {StatusProcessing, StatusFulfilled, StatusDenied, StatusClosed},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok || s == StatusClosed
}

// CanTransition reports whether a request may move from s to next.
// Closed is terminal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Request struct {
	ID             uuid.UUID
	RequesterID    id.UserID
	Agency         string
	Subject        string
	Description    string
	Status         Status
	TrackingNumber string
	SubmittedAt    *time.Time
	DueAt          *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *Request) IsOwnedBy(userID id.UserID) bool {
	return r.RequesterID == userID
}

// Transition moves the request to next. Submitting stamps the submission
// time and due date; closing stamps the close time.
func (r *Request) Transition(next Status, at time.Time) error {
	if !r.Status.CanTransition(next) {
		return dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("cannot move request from %s to %s", r.Status, next))
	}
	switch next {
	case StatusSubmitted:
		submitted := at
		due := DueDate(at)
		r.SubmittedAt = &submitted
		r.DueAt = &due
		if r.TrackingNumber == "" {
			r.TrackingNumber = TrackingNumber(r.ID, at)
		}
	case StatusClosed:
		closed := at
		r.ClosedAt = &closed
	}
	r.Status = next
	r.UpdatedAt = at
	return nil
}

// IsOverdue reports whether a submitted request is past due without a
// final answer.
func (r *Request) IsOverdue(now time.Time) bool {
	if r.DueAt == nil {
		return false
	}
	switch r.Status {
	case StatusFulfilled, StatusDenied, StatusClosed:
		return false
	}
	return now.After(*r.DueAt)
}

// DueDate adds ResponseWindow business days to submitted, skipping
// weekends. Public holidays are not modelled.
func DueDate(submitted time.Time) time.Time {
	due := submitted
	for added := 0; added < ResponseWindow; {
		due = due.AddDate(0, 0, 1)
		if wd := due.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return due
}

// TrackingNumber derives a readable reference such as FOIA-2026-1A2B3C4D.
func TrackingNumber(requestID uuid.UUID, at time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(requestID.String(), "-", "")[:8])
	return fmt.Sprintf("FOIA-%d-%s", at.Year(), short)
}

// Response is an agency reply or correspondence logged against a request.
type Response struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	AuthorID  id.UserID
	Body      string
	CreatedAt time.Time
}

// Attachment is metadata for a file released by the agency. Files live
// elsewhere; only the URL is stored.
type Attachment struct {
	ID          uuid.UUID
	RequestID   uuid.UUID
	FileName    string
	URL         string
	ContentType string
	UploadedBy  id.UserID
	CreatedAt   time.Time
}

// ListFilter narrows ListRequests. Zero values match everything.
type ListFilter struct {
	RequesterID *id.UserID
	Status      Status
	Limit       int
}
