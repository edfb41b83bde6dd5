package goSession

import (
	"errors"
	"io/fs"
	"time"

	"github.com/MrEthical07/goSession/internal/security"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of an [Engine].
//
// Config instances are intended to be configured during initialization and then treated as immutable.
//
//	Docs: docs/config.md
type Config struct {
	Session   SessionConfig   `envPrefix:"SESSION_"`
	Cluster   ClusterConfig   `envPrefix:"SESSION_"`
	Monitor   MonitorConfig   `envPrefix:"SESSION_MONITOR_"`
	Scheduler SchedulerConfig `envPrefix:"SESSION_SCHEDULER_"`
	Audit     AuditConfig     `envPrefix:"SESSION_AUDIT_"`
	Metrics   MetricsConfig   `envPrefix:"SESSION_METRICS_"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and the per-user cap.
type SessionConfig struct {
	// MaxSessionsPerUser caps live sessions per user. 0 disables the cap.
	MaxSessionsPerUser int `env:"MAX_PER_USER"`
	TimeoutSeconds     int `env:"TIMEOUT_SECONDS"`
	// ExtendOnActivity slides expiresAt forward on every touch.
	ExtendOnActivity bool `env:"EXTEND_ON_ACTIVITY"`
}

// Timeout returns TimeoutSeconds as a duration.
func (c SessionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

/*
====================================
CLUSTER CONFIG
====================================
*/

// ClusterConfig controls key partitioning and cross-process coordination.
type ClusterConfig struct {
	// PartitionCount is only honoured in distributed mode; otherwise one
	// partition is used.
	PartitionCount  int    `env:"PARTITION_COUNT"`
	DistributedMode bool   `env:"DISTRIBUTED_MODE"`
	KeyPrefix       string `env:"KEY_PREFIX"`
	// EnforcePartitionScheme pins the partition count in the cache on Start
	// and refuses to run against a cache written with another count.
	EnforcePartitionScheme bool          `env:"ENFORCE_PARTITION_SCHEME"`
	LockLease              time.Duration `env:"LOCK_LEASE"`
	LockWait               time.Duration `env:"LOCK_WAIT"`
	// LockStripes sizes the in-process locker used outside distributed mode.
	LockStripes int `env:"LOCK_STRIPES"`
}

// EffectivePartitions is the partition count actually used for keys.
func (c ClusterConfig) EffectivePartitions() int {
	if !c.DistributedMode {
		return 1
	}
	return max(c.PartitionCount, 1)
}

/*
====================================
MONITOR CONFIG
====================================
*/

// MonitorConfig holds the suspicious-session heuristics thresholds.
type MonitorConfig struct {
	MaxDistinctIPs    int           `env:"MAX_DISTINCT_IPS"`
	InactiveThreshold time.Duration `env:"INACTIVE_THRESHOLD"`
	UserAgentDenylist []string      `env:"USER_AGENT_DENYLIST" envSeparator:","`
}

func (c MonitorConfig) thresholds() security.Thresholds {
	return security.Thresholds{
		MaxDistinctIPs:    c.MaxDistinctIPs,
		InactiveAfter:     c.InactiveThreshold,
		UserAgentDenylist: append([]string(nil), c.UserAgentDenylist...),
	}
}

/*
====================================
SCHEDULER CONFIG
====================================
*/

// SchedulerConfig controls the background loops started by [Engine.Start].
type SchedulerConfig struct {
	Enabled       bool          `env:"ENABLED"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`
	ScanInterval  time.Duration `env:"SCAN_INTERVAL"`
	// ScanAutoRevoke makes the scheduled scan revoke what it flags.
	ScanAutoRevoke bool          `env:"SCAN_AUTO_REVOKE"`
	StatsEnabled   bool          `env:"STATS_ENABLED"`
	StatsInterval  time.Duration `env:"STATS_INTERVAL"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			MaxSessionsPerUser: 5,
			TimeoutSeconds:     86400,
			ExtendOnActivity:   true,
		},
		Cluster: ClusterConfig{
			PartitionCount:         16,
			DistributedMode:        false,
			KeyPrefix:              "",
			EnforcePartitionScheme: true,
			LockLease:              5 * time.Second,
			LockWait:               2 * time.Second,
			LockStripes:            256,
		},
		Monitor: MonitorConfig{
			MaxDistinctIPs:    security.DefaultMaxDistinctIPs,
			InactiveThreshold: security.DefaultInactiveAfter,
			UserAgentDenylist: append([]string(nil), security.DefaultUserAgentDenylist...),
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			SweepInterval:  time.Hour,
			ScanInterval:   30 * time.Minute,
			ScanAutoRevoke: false,
			StatsEnabled:   false,
			StatsInterval:  10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Monitor.UserAgentDenylist = append([]string(nil), cfg.Monitor.UserAgentDenylist...)
	return out
}

/*
====================================
LOADING
====================================
*/

// ErrParsingConfig wraps environment parsing failures.
var ErrParsingConfig = errors.New("failed to parse session config")

// LoadConfig starts from [DefaultConfig], overlays an optional .env file and
// then the process environment, and validates the result. Variables that are
// not set keep their default.
//
//	SESSION_MAX_PER_USER, SESSION_TIMEOUT_SECONDS, SESSION_EXTEND_ON_ACTIVITY,
//	SESSION_PARTITION_COUNT, SESSION_DISTRIBUTED_MODE, SESSION_KEY_PREFIX, ...
func LoadConfig(envFiles ...string) (Config, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	if c.Session.MaxSessionsPerUser < 0 {
		return errors.New("Session MaxSessionsPerUser must be >= 0")
	}
	if c.Session.TimeoutSeconds <= 0 {
		return errors.New("Session TimeoutSeconds must be > 0")
	}

	// Cluster
	if c.Cluster.PartitionCount <= 0 {
		return errors.New("Cluster PartitionCount must be > 0")
	}
	if c.Cluster.DistributedMode {
		if c.Cluster.LockLease <= 0 {
			return errors.New("Cluster LockLease must be > 0 in distributed mode")
		}
		if c.Cluster.LockWait < 0 {
			return errors.New("Cluster LockWait must be >= 0")
		}
	} else if c.Cluster.LockStripes <= 0 {
		return errors.New("Cluster LockStripes must be > 0")
	}

	// Monitor
	if c.Monitor.MaxDistinctIPs <= 0 {
		return errors.New("Monitor MaxDistinctIPs must be > 0")
	}
	if c.Monitor.InactiveThreshold <= 0 {
		return errors.New("Monitor InactiveThreshold must be > 0")
	}

	// Scheduler
	if c.Scheduler.Enabled {
		if c.Scheduler.SweepInterval <= 0 {
			return errors.New("Scheduler SweepInterval must be > 0 when scheduler is enabled")
		}
		if c.Scheduler.ScanInterval <= 0 {
			return errors.New("Scheduler ScanInterval must be > 0 when scheduler is enabled")
		}
		if c.Scheduler.StatsEnabled && c.Scheduler.StatsInterval <= 0 {
			return errors.New("Scheduler StatsInterval must be > 0 when stats are enabled")
		}
	}
	if c.Scheduler.StatsEnabled && !c.Scheduler.Enabled {
		return errors.New("Scheduler StatsEnabled requires Scheduler Enabled")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
