package goSession

import (
	"slices"
	"testing"
	"time"
)

func TestLint_DefaultConfigHasNoHighFindings(t *testing.T) {
	cfg := defaultConfig()
	ws := cfg.Lint()
	codes := ws.Codes()

	if len(ws.BySeverity(LintHigh)) != 0 {
		t.Fatalf("default config should have no HIGH findings, got %v", codes)
	}
	if !containsCode(codes, "partition_count_ignored") {
		t.Error("expected partition_count_ignored for default non-distributed config")
	}
	if !containsCode(codes, "audit_disabled") {
		t.Error("expected audit_disabled for default config")
	}
	if containsCode(codes, "scheduler_disabled") {
		t.Error("default config runs the scheduler")
	}
}

func TestLint_PartitionSchemeUnpinnedIsHigh(t *testing.T) {
	cfg := defaultConfig()
	cfg.Cluster.DistributedMode = true
	cfg.Cluster.EnforcePartitionScheme = false

	for _, w := range cfg.Lint() {
		if w.Code == "partition_scheme_unpinned" {
			if w.Severity != LintHigh {
				t.Errorf("partition_scheme_unpinned should be HIGH, got %s", w.Severity)
			}
			return
		}
	}
	t.Error("expected partition_scheme_unpinned warning")
}

func TestLint_UnpinnedSchemeIgnoredOutsideDistributedMode(t *testing.T) {
	cfg := defaultConfig()
	cfg.Cluster.EnforcePartitionScheme = false
	if containsCode(cfg.Lint().Codes(), "partition_scheme_unpinned") {
		t.Error("single-partition deployments cannot orphan records")
	}
}

func TestLint_LockWaitExceedsLease(t *testing.T) {
	cfg := defaultConfig()
	cfg.Cluster.DistributedMode = true
	cfg.Cluster.LockWait = 10 * time.Second
	if !containsCode(cfg.Lint().Codes(), "lock_wait_exceeds_lease") {
		t.Error("expected lock_wait_exceeds_lease warning")
	}
}

func TestLint_SessionLimitDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.MaxSessionsPerUser = 0
	if !containsCode(cfg.Lint().Codes(), "session_limit_disabled") {
		t.Error("expected session_limit_disabled warning")
	}
}

func TestLint_TimeoutBounds(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.TimeoutSeconds = int((31 * 24 * time.Hour).Seconds())
	if !containsCode(cfg.Lint().Codes(), "timeout_long") {
		t.Error("expected timeout_long warning")
	}

	cfg = defaultConfig()
	cfg.Session.TimeoutSeconds = 60
	if containsCode(cfg.Lint().Codes(), "timeout_short_fixed") {
		t.Error("sliding timeouts should not trigger timeout_short_fixed")
	}
	cfg.Session.ExtendOnActivity = false
	if !containsCode(cfg.Lint().Codes(), "timeout_short_fixed") {
		t.Error("expected timeout_short_fixed warning")
	}
}

func TestLint_SchedulerAndMonitor(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Enabled = false
	cfg.Monitor.UserAgentDenylist = nil
	codes := cfg.Lint().Codes()

	for _, want := range []string{"scheduler_disabled", "user_agent_denylist_empty"} {
		if !containsCode(codes, want) {
			t.Errorf("expected %s warning", want)
		}
	}

	cfg = defaultConfig()
	cfg.Scheduler.ScanAutoRevoke = true
	if !containsCode(cfg.Lint().Codes(), "scan_auto_revoke") {
		t.Error("expected scan_auto_revoke info")
	}
}

func TestLint_AuditDropIfFull(t *testing.T) {
	cfg := defaultConfig()
	cfg.Audit.Enabled = true
	codes := cfg.Lint().Codes()
	if containsCode(codes, "audit_disabled") {
		t.Error("audit_disabled should not fire when audit is enabled")
	}
	if !containsCode(codes, "audit_drop_if_full") {
		t.Error("expected audit_drop_if_full info")
	}
}

func TestLint_AsError(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Errorf("default config should not fail AsError(LintHigh): %v", err)
	}

	cfg.Cluster.DistributedMode = true
	cfg.Cluster.EnforcePartitionScheme = false
	if err := cfg.Lint().AsError(LintHigh); err == nil {
		t.Error("expected AsError(LintHigh) to return error for unpinned partitions")
	}
}

func TestLint_BySeverity(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.MaxSessionsPerUser = 0
	ws := cfg.Lint()

	warn := ws.BySeverity(LintWarn)
	if len(warn) == 0 {
		t.Error("expected at least one WARN finding")
	}
	for _, w := range warn {
		if w.Severity < LintWarn {
			t.Errorf("BySeverity(LintWarn) returned warning with severity %s", w.Severity)
		}
	}
	if len(ws.BySeverity(LintInfo)) != len(ws) {
		t.Error("BySeverity(LintInfo) should return every finding")
	}
}

func TestLintSeverityString(t *testing.T) {
	if LintInfo.String() != "INFO" || LintWarn.String() != "WARN" || LintHigh.String() != "HIGH" {
		t.Fatal("unexpected severity names")
	}
	if LintSeverity(9).String() != "UNKNOWN" {
		t.Fatal("expected UNKNOWN for out-of-range severity")
	}
}

// helpers

func containsCode(codes []string, code string) bool {
	return slices.Contains(codes, code)
}
