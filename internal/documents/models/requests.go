package models

import (
	"strings"

	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/validation"
	v "civic/pkg/validation"
)

type CreateRequest struct {
	Title   string `json:"title" validate:"notblank,max=200"`
	Content string `json:"content"`
}

func (r *CreateRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := v.Validate(r); err != nil {
		return err
	}
	return validation.CheckStringLength("content", r.Content, validation.MaxDocumentLength)
}

// SaveRequest writes a new version. BaseVersion is the version the editor
// started from; a blank Title keeps the current one.
type SaveRequest struct {
	Title       string `json:"title" validate:"max=200"`
	Content     string `json:"content"`
	BaseVersion int    `json:"base_version" validate:"required,min=1"`
}

func (r *SaveRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

func (r *SaveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := v.Validate(r); err != nil {
		return err
	}
	return validation.CheckStringLength("content", r.Content, validation.MaxDocumentLength)
}

type RestoreRequest struct {
	BaseVersion int `json:"base_version" validate:"required,min=1"`
}

func (r *RestoreRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}
