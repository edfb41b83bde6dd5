package goSession

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	BackendAvailable bool
	BackendLatency   time.Duration
}

// GetStatistics aggregates every stored record into totals, per-user and
// per-tenant counts of live sessions, and the most recent activity. Records
// past their expiry count as expired even if the cache still holds them.
// Records whose id is blacklisted are left out, since [Engine.GetSession]
// would not return them either.
//
// Backend failures are logged and yield an empty result.
//
//	Performance: full keyspace scan + batched reads.
func (e *Engine) GetStatistics(ctx context.Context) Statistics {
	empty := Statistics{
		PerUser:        map[string]int{},
		PerTenant:      map[string]int{},
		RecentActivity: []ActivityEntry{},
		GeneratedAt:    e.now(),
	}
	if !e.ready() {
		return empty
	}

	stats, err := flows.RunStatistics(ctx, e.statisticsFlowDeps())
	if err != nil {
		e.metricInc(MetricStorageFailure)
		e.logger.ErrorContext(ctx, "session statistics failed",
			slog.String("error", err.Error()))
		return empty
	}
	return stats
}

// SweepExpired removes logically expired records together with their index
// entries, and purges records that can no longer be decoded. The cache's own
// TTL drops the records eventually; the sweep is what keeps the index sets
// clean. Per-record failures are joined into the error and do not stop the
// sweep.
func (e *Engine) SweepExpired(ctx context.Context) (SweepReport, error) {
	if !e.ready() {
		return SweepReport{}, ErrEngineNotReady
	}

	report, err := flows.RunSweep(ctx, e.sweepFlowDeps())
	e.metricInc(MetricSweepRuns)
	e.metricAdd(MetricSweepPurged, report.Purged)

	attrs := []any{
		slog.Int("scanned", report.Scanned),
		slog.Int("expired", report.Expired),
		slog.Int("purged", report.Purged),
		slog.Int("failed", report.Failed),
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "session sweep finished with errors", append(attrs, slog.String("error", err.Error()))...)
	} else {
		e.logger.DebugContext(ctx, "session sweep finished", attrs...)
	}
	return report, err
}

// ActiveSessionCount returns the number of live sessions of userID.
func (e *Engine) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	return flows.RunActiveSessionCount(ctx, userID, e.introspectionFlowDeps())
}

// Health pings the cache backend.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if !e.ready() {
		return HealthStatus{}
	}

	ok, latency := flows.RunHealth(ctx, e.introspectionFlowDeps())
	return HealthStatus{
		BackendAvailable: ok,
		BackendLatency:   latency,
	}
}
