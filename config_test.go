package goSession

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "session limit zero valid",
			mutate: func(c *Config) {
				c.Session.MaxSessionsPerUser = 0
			},
			wantValid: true,
		},
		{
			name: "session limit negative invalid",
			mutate: func(c *Config) {
				c.Session.MaxSessionsPerUser = -1
			},
			wantValid: false,
		},
		{
			name: "timeout zero invalid",
			mutate: func(c *Config) {
				c.Session.TimeoutSeconds = 0
			},
			wantValid: false,
		},
		{
			name: "partition count zero invalid",
			mutate: func(c *Config) {
				c.Cluster.PartitionCount = 0
			},
			wantValid: false,
		},
		{
			name: "distributed lease zero invalid",
			mutate: func(c *Config) {
				c.Cluster.DistributedMode = true
				c.Cluster.LockLease = 0
			},
			wantValid: false,
		},
		{
			name: "distributed negative wait invalid",
			mutate: func(c *Config) {
				c.Cluster.DistributedMode = true
				c.Cluster.LockWait = -time.Second
			},
			wantValid: false,
		},
		{
			name: "distributed ignores stripes",
			mutate: func(c *Config) {
				c.Cluster.DistributedMode = true
				c.Cluster.LockStripes = 0
			},
			wantValid: true,
		},
		{
			name: "local stripes zero invalid",
			mutate: func(c *Config) {
				c.Cluster.LockStripes = 0
			},
			wantValid: false,
		},
		{
			name: "distinct ips zero invalid",
			mutate: func(c *Config) {
				c.Monitor.MaxDistinctIPs = 0
			},
			wantValid: false,
		},
		{
			name: "inactive threshold zero invalid",
			mutate: func(c *Config) {
				c.Monitor.InactiveThreshold = 0
			},
			wantValid: false,
		},
		{
			name: "empty denylist valid",
			mutate: func(c *Config) {
				c.Monitor.UserAgentDenylist = nil
			},
			wantValid: true,
		},
		{
			name: "sweep interval zero invalid when enabled",
			mutate: func(c *Config) {
				c.Scheduler.SweepInterval = 0
			},
			wantValid: false,
		},
		{
			name: "intervals ignored when scheduler disabled",
			mutate: func(c *Config) {
				c.Scheduler.Enabled = false
				c.Scheduler.SweepInterval = 0
				c.Scheduler.ScanInterval = 0
			},
			wantValid: true,
		},
		{
			name: "stats without scheduler invalid",
			mutate: func(c *Config) {
				c.Scheduler.Enabled = false
				c.Scheduler.StatsEnabled = true
			},
			wantValid: false,
		},
		{
			name: "stats interval zero invalid",
			mutate: func(c *Config) {
				c.Scheduler.StatsEnabled = true
				c.Scheduler.StatsInterval = 0
			},
			wantValid: false,
		},
		{
			name: "audit buffer zero invalid when enabled",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Session.MaxSessionsPerUser != 5 {
		t.Fatalf("expected 5 sessions per user, got %d", cfg.Session.MaxSessionsPerUser)
	}
	if cfg.Session.Timeout() != 24*time.Hour {
		t.Fatalf("expected 24h timeout, got %v", cfg.Session.Timeout())
	}
	if !cfg.Session.ExtendOnActivity {
		t.Fatal("expected ExtendOnActivity by default")
	}
	if cfg.Cluster.PartitionCount != 16 || cfg.Cluster.DistributedMode {
		t.Fatalf("unexpected cluster defaults: %+v", cfg.Cluster)
	}
	if cfg.Cluster.EffectivePartitions() != 1 {
		t.Fatalf("expected one effective partition outside distributed mode, got %d", cfg.Cluster.EffectivePartitions())
	}
	if cfg.Monitor.MaxDistinctIPs != 3 || cfg.Monitor.InactiveThreshold != 24*time.Hour {
		t.Fatalf("unexpected monitor defaults: %+v", cfg.Monitor)
	}
	if len(cfg.Monitor.UserAgentDenylist) != 7 {
		t.Fatalf("expected 7 denylist entries, got %v", cfg.Monitor.UserAgentDenylist)
	}
	if cfg.Scheduler.SweepInterval != time.Hour || cfg.Scheduler.ScanInterval != 30*time.Minute {
		t.Fatalf("unexpected scheduler defaults: %+v", cfg.Scheduler)
	}
}

func TestEffectivePartitionsInDistributedMode(t *testing.T) {
	cfg := defaultConfig()
	cfg.Cluster.DistributedMode = true
	cfg.Cluster.PartitionCount = 64
	if got := cfg.Cluster.EffectivePartitions(); got != 64 {
		t.Fatalf("expected 64 partitions, got %d", got)
	}
}

func TestCloneConfigDoesNotShareDenylist(t *testing.T) {
	cfg := defaultConfig()
	clone := cloneConfig(cfg)
	clone.Monitor.UserAgentDenylist[0] = "changed"

	if cfg.Monitor.UserAgentDenylist[0] == "changed" {
		t.Fatal("clone shares denylist backing array with original")
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SESSION_MAX_PER_USER", "2")
	t.Setenv("SESSION_TIMEOUT_SECONDS", "600")
	t.Setenv("SESSION_EXTEND_ON_ACTIVITY", "false")
	t.Setenv("SESSION_DISTRIBUTED_MODE", "true")
	t.Setenv("SESSION_PARTITION_COUNT", "32")
	t.Setenv("SESSION_KEY_PREFIX", "tenant-a")
	t.Setenv("SESSION_MONITOR_USER_AGENT_DENYLIST", "python-requests,httpie")
	t.Setenv("SESSION_SCHEDULER_SCAN_INTERVAL", "5m")
	t.Setenv("SESSION_AUDIT_ENABLED", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Session.MaxSessionsPerUser != 2 || cfg.Session.TimeoutSeconds != 600 || cfg.Session.ExtendOnActivity {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if !cfg.Cluster.DistributedMode || cfg.Cluster.PartitionCount != 32 || cfg.Cluster.KeyPrefix != "tenant-a" {
		t.Fatalf("unexpected cluster config: %+v", cfg.Cluster)
	}
	if len(cfg.Monitor.UserAgentDenylist) != 2 || cfg.Monitor.UserAgentDenylist[1] != "httpie" {
		t.Fatalf("unexpected denylist: %v", cfg.Monitor.UserAgentDenylist)
	}
	if cfg.Scheduler.ScanInterval != 5*time.Minute {
		t.Fatalf("expected 5m scan interval, got %v", cfg.Scheduler.ScanInterval)
	}
	if cfg.Scheduler.SweepInterval != time.Hour {
		t.Fatalf("unset variables must keep defaults, got sweep %v", cfg.Scheduler.SweepInterval)
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 1024 {
		t.Fatalf("unexpected audit config: %+v", cfg.Audit)
	}
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.env")
	content := "SESSION_MAX_PER_USER=7\nSESSION_MONITOR_MAX_DISTINCT_IPS=5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SESSION_MAX_PER_USER", "")
	os.Unsetenv("SESSION_MAX_PER_USER")
	t.Setenv("SESSION_MONITOR_MAX_DISTINCT_IPS", "")
	os.Unsetenv("SESSION_MONITOR_MAX_DISTINCT_IPS")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Session.MaxSessionsPerUser != 7 {
		t.Fatalf("expected 7 from env file, got %d", cfg.Session.MaxSessionsPerUser)
	}
	if cfg.Monitor.MaxDistinctIPs != 5 {
		t.Fatalf("expected 5 from env file, got %d", cfg.Monitor.MaxDistinctIPs)
	}
}

func TestLoadConfigRejectsMalformedValue(t *testing.T) {
	t.Setenv("SESSION_TIMEOUT_SECONDS", "one-day")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if !errors.Is(err, ErrParsingConfig) {
		t.Fatalf("expected ErrParsingConfig, got %v", err)
	}
}

func TestLoadConfigRejectsInvalidValue(t *testing.T) {
	t.Setenv("SESSION_PARTITION_COUNT", "0")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if errors.Is(err, ErrParsingConfig) {
		t.Fatalf("validation failure must not be reported as a parse error: %v", err)
	}
}
