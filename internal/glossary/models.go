// Package glossary holds the plain-language definitions linked from the
// rest of the site.
package glossary

import (
	"time"

	dErrors "civic/pkg/domain-errors"
	s "civic/pkg/string"
	v "civic/pkg/validation"
)

// Term is keyed by its slug.
type Term struct {
	Slug       string
	Term       string
	Definition string
	UpdatedAt  time.Time
}

// UpsertRequest defines a term. Slug defaults to the slugified term.
type UpsertRequest struct {
	Slug       string `json:"slug" validate:"omitempty,slug,max=100"`
	Term       string `json:"term" validate:"notblank,max=200"`
	Definition string `json:"definition" validate:"notblank,max=10000"`
}

func (r *UpsertRequest) Normalize() {
	s.TrimStrings(&r.Slug, &r.Term, &r.Definition)
	if r.Slug == "" {
		r.Slug = s.Slugify(r.Term)
	}
}

func (r *UpsertRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type TermView struct {
	Slug       string    `json:"slug"`
	Term       string    `json:"term"`
	Definition string    `json:"definition"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewTermView(t *Term) TermView {
	return TermView{Slug: t.Slug, Term: t.Term, Definition: t.Definition, UpdatedAt: t.UpdatedAt}
}
