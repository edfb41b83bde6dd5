package goSession

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/cache"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/lock"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be used once.
type Builder struct {
	config    Config
	backend   cache.Backend
	auditSink AuditSink
	logger    *slog.Logger
	location  LocationChangeDetector
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBackend sets the cache backend directly, for example a
// [cache.MemoryBackend] in single-process deployments.
func (b *Builder) WithBackend(backend cache.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRedis uses client through a [cache.RedisBackend]. The caller keeps
// ownership of client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	if client == nil {
		b.backend = nil
		return b
	}
	b.backend = cache.NewRedisBackend(client)
	return b
}

// WithAuditSink enables audit delivery to sink. Audit.Enabled must also be
// set for events to flow.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithLocationChangeDetector plugs a geolocation provider into the
// suspicious-session scan.
func (b *Builder) WithLocationChangeDetector(d LocationChangeDetector) *Builder {
	b.location = d
	return b
}

// WithClock overrides the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. It performs no
// I/O; the partition scheme check and the scheduler run in [Engine.Start].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.backend == nil {
		return nil, errors.New("cache backend required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- KEYSPACE --------
	keys := session.NewKeyspace(cfg.Cluster.KeyPrefix, session.NewPartitioner(cfg.Cluster.EffectivePartitions()))

	// -------- LIMITER LOCK --------
	var locker lock.Locker
	if cfg.Cluster.DistributedMode {
		locker = lock.NewLeaseLocker(b.backend, keys.LockKey, lock.LeaseConfig{
			Lease: cfg.Cluster.LockLease,
			Wait:  cfg.Cluster.LockWait,
		})
	} else {
		locker = lock.NewStripedLocker(cfg.Cluster.LockStripes)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	location := b.location
	if location == nil {
		location = noLocationSignal{}
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config:    cfg,
		backend:   b.backend,
		keys:      keys,
		store:     session.NewStore(b.backend, keys),
		index:     session.NewIndex(b.backend, keys),
		blacklist: session.NewBlacklist(b.backend, keys),
		locker:    locker,
		location:  location,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    logger.With(slog.String("component", "gosession")),
		clock:     clock,
	}
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return engine, nil
}
