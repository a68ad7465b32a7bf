// Package device turns request metadata into the labels shown on a user's
// session list.
package device

import (
	"strings"

	"github.com/mssola/useragent"

	"civic/pkg/platform/privacy"
)

const maxDisplayNameLength = 100

// Info is what a session records about the device that created it.
type Info struct {
	DisplayName string
	IPPrefix    string
}

// Describe builds Info from a User-Agent header and client IP. The IP is
// reduced to its network prefix before it is stored.
func Describe(userAgent, clientIP string) Info {
	return Info{
		DisplayName: ParseUserAgent(userAgent),
		IPPrefix:    privacy.AnonymizeIP(clientIP),
	}
}

// ParseUserAgent returns "Browser on OS" (e.g. "Chrome on macOS"). Mobile
// devices use the platform instead of the OS ("Safari on iPhone").
func ParseUserAgent(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return truncate(strings.TrimSpace(browser + " on " + platform))
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return truncate(strings.TrimSpace(browser + " on " + os))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDisplayNameLength {
		return s
	}
	return string(r[:maxDisplayNameLength])
}
