// Package events is the community calendar.
package events

import (
	"time"

	"github.com/google/uuid"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	s "civic/pkg/string"
	v "civic/pkg/validation"
)

type Event struct {
	ID          uuid.UUID
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedBy   id.UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Window selects events overlapping [From, To]. Zero bounds are open.
type Window struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Overlaps reports whether e is at least partly inside w.
func (w Window) Overlaps(e *Event) bool {
	if !w.From.IsZero() && e.EndsAt.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && e.StartsAt.After(w.To) {
		return false
	}
	return true
}

// EventRequest is used for both create and full update.
type EventRequest struct {
	Title       string    `json:"title" validate:"notblank,max=200"`
	Description string    `json:"description" validate:"max=10000"`
	Location    string    `json:"location" validate:"max=200"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtefield=StartsAt"`
}

func (r *EventRequest) Normalize() {
	s.TrimStrings(&r.Title, &r.Description, &r.Location)
	r.StartsAt = r.StartsAt.UTC()
	r.EndsAt = r.EndsAt.UTC()
}

func (r *EventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type EventView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewEventView(e *Event) EventView {
	return EventView{
		ID:          e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		CreatedBy:   e.CreatedBy.String(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
