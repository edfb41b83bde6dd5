package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Created sessions."},
	{ID: goSession.MetricSessionInvalidated, Name: "gosession_session_invalidated_total", Help: "Explicitly invalidated sessions."},
	{ID: goSession.MetricSessionEvicted, Name: "gosession_session_evicted_total", Help: "Sessions evicted by the per-user limit."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_session_expired_total", Help: "Logically expired sessions cleaned up."},
	{ID: goSession.MetricSessionTouched, Name: "gosession_session_touched_total", Help: "Activity updates on live sessions."},
	{ID: goSession.MetricSessionLookupHit, Name: "gosession_session_lookup_hit_total", Help: "Lookups that returned a live session."},
	{ID: goSession.MetricSessionLookupMiss, Name: "gosession_session_lookup_miss_total", Help: "Lookups that found no live session."},
	{ID: goSession.MetricBlacklistHit, Name: "gosession_blacklist_hit_total", Help: "Lookups rejected by the blacklist."},
	{ID: goSession.MetricRevokeAll, Name: "gosession_revoke_all_total", Help: "Revoke-all operations."},
	{ID: goSession.MetricSuspiciousFlagged, Name: "gosession_suspicious_flagged_total", Help: "Sessions flagged by the security monitor."},
	{ID: goSession.MetricAutoRevoked, Name: "gosession_auto_revoked_total", Help: "Suspicious sessions revoked automatically."},
	{ID: goSession.MetricSweepRuns, Name: "gosession_sweep_runs_total", Help: "Expired-session sweeper passes."},
	{ID: goSession.MetricSweepPurged, Name: "gosession_sweep_purged_total", Help: "Unreadable records purged by the sweeper."},
	{ID: goSession.MetricStorageFailure, Name: "gosession_storage_failure_total", Help: "Cache backend failures."},
	{ID: goSession.MetricLockTimeout, Name: "gosession_lock_timeout_total", Help: "Creations that proceeded without the per-user lock."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricLookupLatency, Name: "gosession_lookup_latency_seconds", Help: "Session lookup latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's eight
// latency buckets.
var HistogramBounds = []string{
	"0.001",
	"0.002",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for use in metric names.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_002",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-slot array, zero-filling or
// truncating as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
