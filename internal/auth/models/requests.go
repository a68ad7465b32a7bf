package models

import (
	"net/url"
	"strings"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/validation"
	s "civic/pkg/string"
	v "civic/pkg/validation"
)

const MinPasswordLength = 8

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"notblank,max=100"`
}

func (r *SignUpRequest) Normalize() {
	r.Email = s.NormalizeEmail(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
}

func (r *SignUpRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *SignInRequest) Normalize() {
	r.Email = s.NormalizeEmail(r.Email)
}

func (r *SignInRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

// SignInForm is the browser variant of SignInRequest. Next is the relative
// path to land on after signing in.
type SignInForm struct {
	SignInRequest
	Next string
}

// SignInFormFromValues reads a url-encoded sign-in form.
func SignInFormFromValues(values url.Values) *SignInForm {
	form := &SignInForm{
		SignInRequest: SignInRequest{
			Email:    values.Get("email"),
			Password: values.Get("password"),
		},
		Next: strings.TrimSpace(values.Get("next")),
	}
	form.Normalize()
	return form
}

// RedirectTarget returns Next when it is a safe relative path, else fallback.
func (f *SignInForm) RedirectTarget(fallback string) string {
	if v.IsSafeRedirect(f.Next) {
		return f.Next
	}
	return fallback
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshRequest) Normalize() {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
}

func (r *RefreshRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.RefreshToken == "" {
		return dErrors.New(dErrors.CodeValidation, "refresh_token is required")
	}
	return validation.CheckStringLength("refresh_token", r.RefreshToken, validation.MaxRefreshTokenLength)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

func (r *PasswordResetRequest) Normalize() {
	r.Email = s.NormalizeEmail(r.Email)
}

func (r *PasswordResetRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,max=256"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

func (r *ResetPasswordRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
}

func (r *ResetPasswordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return v.Validate(r)
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

func (r *SetRoleRequest) Normalize() {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *SetRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role is required")
	}
	if !id.Role(r.Role).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be one of [member editor admin]")
	}
	return nil
}
