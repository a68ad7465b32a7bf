package models

import (
	"strings"

	dErrors "civic/pkg/domain-errors"
	v "civic/pkg/validation"
)

type CreateRequest struct {
	Agency      string `json:"agency" validate:"notblank,max=200"`
	Subject     string `json:"subject" validate:"notblank,max=300"`
	Description string `json:"description" validate:"max=10000"`
	Submit      bool   `json:"submit"`
}

func (r *CreateRequest) Normalize() {
	r.Agency = strings.TrimSpace(r.Agency)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

// UpdateDraftRequest edits a request that has not been submitted yet.
type UpdateDraftRequest struct {
	Agency      string `json:"agency" validate:"notblank,max=200"`
	Subject     string `json:"subject" validate:"notblank,max=300"`
	Description string `json:"description" validate:"max=10000"`
}

func (r *UpdateDraftRequest) Normalize() {
	r.Agency = strings.TrimSpace(r.Agency)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *UpdateDraftRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

// UpdateStatusRequest is used by editors. TrackingNumber, when set,
// replaces the generated reference with the agency's own.
type UpdateStatusRequest struct {
	Status         Status `json:"status" validate:"required,oneof=draft submitted acknowledged processing fulfilled denied appealed closed"`
	TrackingNumber string `json:"tracking_number" validate:"max=100"`
}

func (r *UpdateStatusRequest) Normalize() {
	r.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Status))))
	r.TrackingNumber = strings.TrimSpace(r.TrackingNumber)
}

func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type AddResponseRequest struct {
	Body string `json:"body" validate:"notblank,max=20000"`
}

func (r *AddResponseRequest) Normalize() {
	r.Body = strings.TrimSpace(r.Body)
}

func (r *AddResponseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type AddAttachmentRequest struct {
	FileName    string `json:"file_name" validate:"notblank,max=255"`
	URL         string `json:"url" validate:"required,url,max=2048"`
	ContentType string `json:"content_type" validate:"max=100"`
}

func (r *AddAttachmentRequest) Normalize() {
	r.FileName = strings.TrimSpace(r.FileName)
	r.URL = strings.TrimSpace(r.URL)
	r.ContentType = strings.ToLower(strings.TrimSpace(r.ContentType))
}

func (r *AddAttachmentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}
