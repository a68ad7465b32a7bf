package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

// GenericErrorMessage is the only description clients ever see for internal failures.
const GenericErrorMessage = "An unexpected error occurred"

// ErrorRoute is where browser form flows land on failure.
const ErrorRoute = "/error"

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// Internal and unclassified errors never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != dErrors.CodeInternal {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error":             DomainCodeToHTTPCode(dErrors.CodeInternal),
		"error_description": GenericErrorMessage,
	})
}

// RedirectError sends a browser to the error route with the HTTP error code
// of err as the message query parameter.
func RedirectError(w http.ResponseWriter, r *http.Request, err error) {
	code := DomainCodeToHTTPCode(dErrors.CodeInternal)
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		code = DomainCodeToHTTPCode(domainErr.Code)
	}
	RedirectErrorCode(w, r, code)
}

// RedirectErrorCode redirects to the error route with an explicit message code.
func RedirectErrorCode(w http.ResponseWriter, r *http.Request, code string) {
	target := ErrorRoute + "?" + url.Values{"message": {code}}.Encode()
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvalidGrant:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field of the JSON envelope.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeRateLimited:
		return "rate_limited"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeTooLarge:
		return "payload_too_large"
	case dErrors.CodeInvalidGrant:
		return "invalid_grant"
	default:
		return "internal_error"
	}
}

// RequireUserID extracts the authenticated user ID from context.
// Returns a domain error suitable for HTTP response on failure.
func RequireUserID(ctx context.Context, logger *slog.Logger, requestID string) (id.UserID, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		if logger != nil {
			logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
				"request_id", requestID)
		}
		return id.UserID{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return userID, nil
}

// PathID parses a UUID route parameter.
func PathID(r *http.Request, param, label string) (uuid.UUID, error) {
	return id.ParseID(chi.URLParam(r, param), label)
}

// LogAndWriteError logs a failed request and writes the error response.
// Client errors log at warn; internal and unclassified errors at error.
func LogAndWriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	ctx := r.Context()
	attrs := []any{"error", err, "request_id", requestcontext.RequestID(ctx)}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != dErrors.CodeInternal {
		logger.WarnContext(ctx, msg, attrs...)
	} else {
		logger.ErrorContext(ctx, msg, attrs...)
	}
	WriteError(w, err)
}
