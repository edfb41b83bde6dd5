package goSession

import (
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/security"
	"github.com/MrEthical07/goSession/session"
)

// Session is the canonical session record.
type Session = session.Session

// ClientContext is the client information captured at session creation. It
// only feeds anomaly heuristics and is never trusted as a security boundary.
type ClientContext = session.ClientContext

// CreateSessionInput describes a session to create. UserID is required.
// Empty TenantID and Client fields fall back to the values attached to the
// context with [WithTenantID], [WithClientIP], [WithUserAgent] and
// [WithDeviceID].
type CreateSessionInput struct {
	UserID   string
	TenantID string
	Client   ClientContext
	Metadata map[string]any
}

// Statistics is a point-in-time aggregate over every stored session.
type Statistics = flows.Statistics

// ActivityEntry is one row of [Statistics.RecentActivity].
type ActivityEntry = flows.ActivityEntry

// SuspiciousReport is the result of one suspicious-session scan.
type SuspiciousReport struct {
	Suspicious []*Session
	// Reasons maps a session id to the heuristics it tripped.
	Reasons map[string][]string
	Scanned int
	// Failures counts sessions that could not be evaluated.
	Failures  int
	ScannedAt time.Time
}

// LogValue keeps scan logs compact.
func (r SuspiciousReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("scanned", r.Scanned),
		slog.Int("suspicious", len(r.Suspicious)),
		slog.Int("failures", r.Failures),
	)
}

// SweepReport summarises one expired-session sweep.
type SweepReport = flows.SweepResult

// SecurityReport describes the engine's effective security posture.
type SecurityReport = security.Report

// Suspicious-session reasons reported by [Engine.ScanSuspicious].
const (
	ReasonIPFanout       = security.ReasonIPFanout
	ReasonUserAgent      = security.ReasonUserAgent
	ReasonLongInactive   = security.ReasonLongInactive
	ReasonLocationChange = security.ReasonLocationChange
)
