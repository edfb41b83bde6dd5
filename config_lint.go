package goSession

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity grades a [LintWarning].
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a configuration that is valid but probably not intended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of warnings produced by [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in report order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds the warnings at or above min into one error, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, len(hits))
	for i, w := range hits {
		parts[i] = fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message)
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint inspects a configuration that already passed [Config.Validate] for
// combinations that are legal but risky.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Cluster.DistributedMode && !c.Cluster.EnforcePartitionScheme {
		add("partition_scheme_unpinned", LintHigh,
			"changing PartitionCount will orphan every stored session without a scheme guard")
	}
	if !c.Cluster.DistributedMode && c.Cluster.PartitionCount > 1 {
		add("partition_count_ignored", LintInfo,
			"PartitionCount only applies in distributed mode")
	}
	if c.Cluster.DistributedMode && c.Cluster.LockWait > c.Cluster.LockLease {
		add("lock_wait_exceeds_lease", LintWarn,
			"LockWait longer than LockLease lets a stuck holder be overtaken by expiry")
	}
	if c.Session.MaxSessionsPerUser == 0 {
		add("session_limit_disabled", LintWarn,
			"MaxSessionsPerUser is 0; users may hold unlimited sessions")
	}
	if c.Session.Timeout() > 30*24*time.Hour {
		add("timeout_long", LintWarn,
			"session timeout above 30 days widens the replay window")
	}
	if !c.Session.ExtendOnActivity && c.Session.Timeout() < 5*time.Minute {
		add("timeout_short_fixed", LintInfo,
			"short fixed timeouts log active users out mid-use")
	}
	if !c.Scheduler.Enabled {
		add("scheduler_disabled", LintWarn,
			"without the sweeper, index sets are only cleaned lazily on read")
	}
	if c.Scheduler.ScanAutoRevoke {
		add("scan_auto_revoke", LintInfo,
			"scheduled scans will revoke flagged sessions without review")
	}
	if len(c.Monitor.UserAgentDenylist) == 0 {
		add("user_agent_denylist_empty", LintWarn,
			"user agent heuristic is disabled by an empty denylist")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo,
			"session lifecycle events are not audited")
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		add("audit_drop_if_full", LintInfo,
			"audit events are dropped when the buffer is full; watch AuditDropped")
	}

	return ws
}
