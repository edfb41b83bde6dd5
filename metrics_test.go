package goSession

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSessionCreated)

	if got := m.Value(MetricSessionCreated); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot when disabled, got %v", snap.Counters)
	}
}

func TestMetricsEnabledIncrementAndAdd(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSessionCreated)
	m.Inc(MetricSessionCreated)
	m.Add(MetricSweepPurged, 5)
	m.Add(MetricSweepPurged, 0)

	if got := m.Value(MetricSessionCreated); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricSweepPurged); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestMetricsOutOfRangeIDIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Inc(metricIDCount)
	m.Observe(metricIDCount+3, time.Millisecond)

	if got := m.Value(metricIDCount); got != 0 {
		t.Fatalf("expected 0 for out-of-range id, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range perG {
				m.Inc(MetricSessionTouched)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricSessionTouched); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		500 * time.Microsecond,
		2 * time.Millisecond,
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricLookupLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricLookupLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveRequiresLatencyHistograms(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricLookupLatency, time.Millisecond)

	if _, ok := m.Snapshot().Histograms[MetricLookupLatency]; ok {
		t.Fatal("expected no histogram without EnableLatencyHistograms")
	}
	if m.LatencyEnabled() {
		t.Fatal("expected latency disabled")
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricSessionLookupHit)
	m.Inc(MetricSessionLookupMiss)
	m.Inc(MetricSessionLookupMiss)
	m.Observe(MetricLookupLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricSessionLookupHit] != 1 {
		t.Fatalf("expected MetricSessionLookupHit=1 got %d", snap.Counters[MetricSessionLookupHit])
	}
	if snap.Counters[MetricSessionLookupMiss] != 2 {
		t.Fatalf("expected MetricSessionLookupMiss=2 got %d", snap.Counters[MetricSessionLookupMiss])
	}
	if len(snap.Counters) != int(metricIDCount) {
		t.Fatalf("expected every counter in snapshot, got %d", len(snap.Counters))
	}
	if snap.Histograms[MetricLookupLatency][1] != 1 {
		t.Fatalf("expected second histogram bucket=1 got %d", snap.Histograms[MetricLookupLatency][1])
	}
}

func TestEngineRecordsLookupLatency(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.EnableLatencyHistograms = true
	env := newTestEngine(t, cfg)
	ctx := context.Background()

	s := mustCreate(t, env, ctx, CreateSessionInput{UserID: "u1"})
	if _, err := env.engine.GetSession(ctx, s.SessionID); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	_, _ = env.engine.GetSession(ctx, "missing")

	snap := env.engine.MetricsSnapshot()
	var total uint64
	for _, v := range snap.Histograms[MetricLookupLatency] {
		total += v
	}
	if total != 2 {
		t.Fatalf("expected 2 latency observations, got %d", total)
	}
	if snap.Counters[MetricSessionLookupHit] != 1 || snap.Counters[MetricSessionLookupMiss] != 1 {
		t.Fatalf("unexpected lookup counters: %v", snap.Counters)
	}
}
