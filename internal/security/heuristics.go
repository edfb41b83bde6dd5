package security

import (
	"strings"
	"time"

	"github.com/MrEthical07/goSession/session"
)

const (
	ReasonIPFanout       = "multiple concurrent sessions from different IPs"
	ReasonUserAgent      = "unusual user agent"
	ReasonLongInactive   = "long inactive session"
	ReasonLocationChange = "rapid location change"
)

// DefaultUserAgentDenylist holds the substrings that mark automated clients.
var DefaultUserAgentDenylist = []string{"bot", "crawler", "spider", "scraper", "curl", "wget", "postman"}

const (
	DefaultMaxDistinctIPs = 3
	DefaultInactiveAfter  = 24 * time.Hour
)

// Thresholds parameterises the heuristics.
type Thresholds struct {
	// MaxDistinctIPs is the largest number of distinct IPs a user may hold
	// live sessions from before being flagged.
	MaxDistinctIPs    int
	InactiveAfter     time.Duration
	UserAgentDenylist []string
}

// DefaultThresholds returns the stock heuristic thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxDistinctIPs:    DefaultMaxDistinctIPs,
		InactiveAfter:     DefaultInactiveAfter,
		UserAgentDenylist: append([]string(nil), DefaultUserAgentDenylist...),
	}
}

// DistinctIPs counts distinct non-empty client IPs across sessions.
func DistinctIPs(sessions []*session.Session) int {
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if s == nil || s.Client.IPAddress == "" {
			continue
		}
		seen[s.Client.IPAddress] = struct{}{}
	}
	return len(seen)
}

// IPFanout reports whether the owner's sessions come from more distinct IPs
// than allowed.
func IPFanout(owned []*session.Session, maxDistinct int) bool {
	return DistinctIPs(owned) > maxDistinct
}

// SuspiciousUserAgent matches userAgent against denylist, case-insensitively.
func SuspiciousUserAgent(userAgent string, denylist []string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, needle := range denylist {
		if needle != "" && strings.Contains(ua, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// LongInactive reports an active session idle for longer than after.
func LongInactive(s *session.Session, now time.Time, after time.Duration) bool {
	return s.IsActive && now.Sub(s.LastActivity) > after
}

// Evaluate runs every heuristic for s. owned is the owner's full set of live
// sessions (s included); locationChanged is the external detector's verdict.
// The returned reasons keep a fixed order.
func Evaluate(s *session.Session, owned []*session.Session, now time.Time, th Thresholds, locationChanged bool) []string {
	var reasons []string
	if IPFanout(owned, th.MaxDistinctIPs) {
		reasons = append(reasons, ReasonIPFanout)
	}
	if SuspiciousUserAgent(s.Client.UserAgent, th.UserAgentDenylist) {
		reasons = append(reasons, ReasonUserAgent)
	}
	if LongInactive(s, now, th.InactiveAfter) {
		reasons = append(reasons, ReasonLongInactive)
	}
	if locationChanged {
		reasons = append(reasons, ReasonLocationChange)
	}
	return reasons
}
