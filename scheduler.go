package goSession

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/session"
	"golang.org/x/sync/errgroup"
)

// scheduler runs the periodic background loops of one Engine.
type scheduler struct {
	cancel context.CancelFunc
	group  *errgroup.Group
}

type periodicJob struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// Start prepares the engine for traffic and launches its background loops.
//
// When Cluster.EnforcePartitionScheme is set, the partition count is pinned in
// the cache first and a mismatch fails with [ErrPartitionSchemeMismatch].
// With the scheduler enabled, Start then launches the expired-session sweeper,
// the suspicious-session scanner and, if configured, the statistics reporter.
// The loops stop when ctx is cancelled or [Engine.Close] is called. A second
// Start without an intervening Close fails with [ErrSchedulerRunning].
func (e *Engine) Start(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scheduler != nil {
		return ErrSchedulerRunning
	}

	if e.config.Cluster.EnforcePartitionScheme {
		if err := session.EnsurePartitionScheme(ctx, e.backend, e.keys); err != nil {
			if errors.Is(err, session.ErrPartitionSchemeMismatch) {
				return err
			}
			return storageError("pin partition scheme", err)
		}
	}

	if !e.config.Scheduler.Enabled {
		return nil
	}

	jobs := e.periodicJobs()
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(loopCtx)
	for _, job := range jobs {
		g.Go(func() error {
			e.runPeriodic(gctx, job)
			return nil
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-loopCtx.Done():
		}
	}()

	e.scheduler = &scheduler{cancel: cancel, group: g}
	e.logger.InfoContext(ctx, "session scheduler started", slog.Int("jobs", len(jobs)))
	return nil
}

func (e *Engine) periodicJobs() []periodicJob {
	cfg := e.config.Scheduler
	jobs := []periodicJob{
		{name: "sweep", interval: cfg.SweepInterval, run: e.sweepJob},
		{name: "scan", interval: cfg.ScanInterval, run: e.scanJob},
	}
	if cfg.StatsEnabled {
		jobs = append(jobs, periodicJob{name: "stats", interval: cfg.StatsInterval, run: e.statsJob})
	}
	return jobs
}

func (e *Engine) runPeriodic(ctx context.Context, job periodicJob) {
	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job.run(ctx); err != nil && ctx.Err() == nil {
				e.logger.ErrorContext(ctx, "periodic job failed",
					slog.String("job", job.name),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (e *Engine) stopScheduler() {
	e.mu.Lock()
	s := e.scheduler
	e.scheduler = nil
	e.mu.Unlock()

	if s == nil {
		return
	}
	s.cancel()
	_ = s.group.Wait()
}

func (e *Engine) sweepJob(ctx context.Context) error {
	_, err := e.SweepExpired(ctx)
	return err
}

// scanJob only reports unless ScanAutoRevoke opts in to revocation.
func (e *Engine) scanJob(ctx context.Context) error {
	if e.config.Scheduler.ScanAutoRevoke {
		_, err := e.AutoRevokeSuspicious(ctx)
		return err
	}
	_, err := e.scanSuspicious(ctx)
	return err
}

func (e *Engine) statsJob(ctx context.Context) error {
	stats := e.GetStatistics(ctx)
	e.logger.InfoContext(ctx, "session statistics",
		slog.Int("total", stats.Total),
		slog.Int("active", stats.Active),
		slog.Int("expired", stats.Expired),
		slog.Int("users", len(stats.PerUser)),
		slog.Int("tenants", len(stats.PerTenant)))
	return nil
}
