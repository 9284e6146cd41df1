package ratelimit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP derives the identity of the client behind r.
// Preference: CF-Connecting-IP, then the first X-Forwarded-For entry, then the
// peer address. The first value that parses wins. IPv4-mapped IPv6 addresses
// are unmapped so both spellings of one client share a window.
func ClientIP(r *http.Request) (netip.Addr, bool) {
	if addr, ok := parseAddr(r.Header.Get("CF-Connecting-IP")); ok {
		return addr, true
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, ok := parseAddr(first); ok {
			return addr, true
		}
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	return parseAddr(remote)
}

func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
