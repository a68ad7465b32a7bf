// Package metadata resolves the caller's IP address and User-Agent once per
// request. X-Forwarded-For and X-Real-IP are honoured only from trusted proxies.
package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"civic/pkg/requestcontext"
)

// MaxForwardedHeaderLength bounds X-Forwarded-For / X-Real-IP values.
const MaxForwardedHeaderLength = 500

type Middleware struct {
	trusted []netip.Prefix
}

// New returns middleware trusting forwarding headers from the given proxy prefixes.
// An empty list never trusts forwarding headers.
func New(trustedProxies []netip.Prefix) *Middleware {
	return &Middleware{trusted: trustedProxies}
}

// ParsePrefixes converts CIDR strings from configuration, skipping malformed entries.
func ParsePrefixes(cidrs []string) []netip.Prefix {
	var out []netip.Prefix
	for _, c := range cidrs {
		if p, err := netip.ParsePrefix(strings.TrimSpace(c)); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientIP(r.Context(), m.clientIP(r))
		ctx = requestcontext.WithUserAgent(ctx, r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) clientIP(r *http.Request) string {
	remote := remoteIP(r.RemoteAddr)
	if !remote.IsValid() {
		return "unknown"
	}
	if !m.isTrusted(remote) {
		return remote.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := parseForwarded(first); ok {
			return ip
		}
		return remote.String()
	}
	if ip, ok := parseForwarded(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	return remote.String()
}

func (m *Middleware) isTrusted(addr netip.Addr) bool {
	for _, p := range m.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func parseForwarded(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > MaxForwardedHeaderLength {
		return "", false
	}
	addr, err := netip.ParseAddr(v)
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}

func remoteIP(remoteAddr string) netip.Addr {
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().Unmap()
	}
	addr, err := netip.ParseAddr(strings.Trim(remoteAddr, "[]"))
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}
