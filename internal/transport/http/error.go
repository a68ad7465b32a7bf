package httptransport

import (
	"net/http"

	"civic/pkg/platform/httputil"
)

// errorMessages is the closed set of codes the error route will echo.
// Anything else collapses to internal_error.
var errorMessages = map[string]string{
	"invalid_credentials": "Invalid email or password",
	"invalid_request":     "The request could not be understood",
	"unauthorized":        "Please sign in to continue",
	"forbidden":           "You do not have access to that page",
	"not_found":           "The requested item was not found",
	"internal_error":      "An unexpected error occurred",
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// handleError is the landing route for browser form redirects.
func handleError(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("message")
	desc, ok := errorMessages[code]
	if !ok {
		code = "internal_error"
		desc = errorMessages[code]
	}
	httputil.WriteJSON(w, http.StatusOK, errorResponse{Error: code, Description: desc})
}
