package session

import (
	"maps"
	"time"
)

// ClientContext is the client fingerprint captured when a session is created.
// It is used for anomaly heuristics only and is never a security boundary.
type ClientContext struct {
	UserAgent string `json:"user_agent,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
}

// Session is the canonical record of one authenticated login.
type Session struct {
	SchemaVersion uint8 `json:"-"`

	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id"`
	TenantID  string        `json:"tenant_id,omitempty"`
	Client    ClientContext `json:"client"`

	LoginTime    time.Time `json:"login_time"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsActive     bool      `json:"is_active"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Expired reports whether the session's logical lifetime has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Remaining is the time left until ExpiresAt. It is <= 0 once expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// MergeMetadata applies patch on top of the existing metadata. Keys in patch
// overwrite existing keys; other keys are kept.
func (s *Session) MergeMetadata(patch map[string]any) {
	if len(patch) == 0 {
		return
	}
	if s.Metadata == nil {
		s.Metadata = make(map[string]any, len(patch))
	}
	maps.Copy(s.Metadata, patch)
}

// Clone returns a copy whose metadata map is not shared with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Metadata != nil {
		out.Metadata = maps.Clone(s.Metadata)
	}
	return &out
}
