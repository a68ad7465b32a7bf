package validation

import (
	"fmt"
	"unicode/utf8"

	dErrors "civic/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize caps JSON and form bodies. Documents are the largest payload.
	MaxBodySize = 1 << 20
)

// String length limits, counted in runes.
const (
	MaxEmailLength        = 255
	MaxTitleLength        = 200
	MaxShortTextLength    = 200
	MaxDescriptionLength  = 10_000
	MaxDocumentLength     = 512 * 1024
	MaxURLLength          = 2048
	MaxRefreshTokenLength = 256
)

// Page sizes for list endpoints.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// ClampLimit turns a requested page size into one within [1, MaxPageSize].
func ClampLimit(requested int) int {
	switch {
	case requested <= 0:
		return DefaultPageSize
	case requested > MaxPageSize:
		return MaxPageSize
	default:
		return requested
	}
}
