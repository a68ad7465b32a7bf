// Package email delivers account mail and derives defaults from addresses.
package email

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"civic/pkg/platform/privacy"
)

// LogMailer writes reset links to the log instead of sending them. It is the
// only mailer wired in development; the token itself is never logged outside
// local environments.
type LogMailer struct {
	logger    *slog.Logger
	baseURL   string
	showToken bool
}

func NewLogMailer(logger *slog.Logger, baseURL string, showToken bool) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger, baseURL: strings.TrimRight(baseURL, "/"), showToken: showToken}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error {
	attrs := []any{
		"to", privacy.MaskEmail(to),
		"expires_at", expiresAt.UTC().Format(time.RFC3339),
	}
	if m.showToken {
		attrs = append(attrs, "reset_url", m.baseURL+"/reset-password?token="+token)
	}
	m.logger.InfoContext(ctx, "password reset mail", attrs...)
	return nil
}

// DisplayNameFromEmail turns "ada.lovelace@example.org" into "Ada Lovelace".
func DisplayNameFromEmail(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		local = address[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Member"
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
