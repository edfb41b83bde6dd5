package internal

import (
	"net"
	"net/netip"
	"strings"
)

const maxUserAgentLength = 512

// NormalizeClientIP canonicalises an address so that "10.0.0.1:443",
// "10.0.0.1" and "::ffff:10.0.0.1" count as the same client IP.
// Values that do not parse are kept trimmed as-is.
func NormalizeClientIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(strings.Trim(raw, "[]"))
	if err != nil {
		return raw
	}
	return addr.Unmap().WithZone("").String()
}

// NormalizeUserAgent trims and bounds the stored user-agent string.
func NormalizeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxUserAgentLength {
		raw = raw[:maxUserAgentLength]
	}
	return raw
}
