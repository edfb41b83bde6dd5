package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cache"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

type healthySource struct {
	fakeSource
	up bool
}

func (h healthySource) Health(context.Context) goSession.HealthStatus {
	return goSession.HealthStatus{BackendAvailable: h.up}
}

func emptySnapshot() goSession.MetricsSnapshot {
	return goSession.MetricsSnapshot{
		Counters:   map[goSession.MetricID]uint64{},
		Histograms: map[goSession.MetricID][]uint64{},
	}
}

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{snapshot: emptySnapshot()})

	if got := exp.Render(context.Background()); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSessionCreated: 7,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricLookupLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render(context.Background())
	for _, want := range []string{
		"gosession_session_created_total 7",
		"gosession_session_evicted_total 0",
		`gosession_lookup_latency_seconds_bucket{le="0.001"} 1`,
		`gosession_lookup_latency_seconds_bucket{le="+Inf"} 36`,
		"gosession_lookup_latency_seconds_count 36",
		"gosession_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "gosession_backend_up") {
		t.Fatal("backend gauge requires a health source")
	}
}

func TestRenderBackendGauge(t *testing.T) {
	down := NewPrometheusExporterFromSource(healthySource{fakeSource: fakeSource{snapshot: emptySnapshot()}})
	if out := down.Render(context.Background()); !strings.Contains(out, "gosession_backend_up 0") {
		t.Fatalf("expected backend_up 0, got:\n%s", out)
	}

	up := NewPrometheusExporterFromSource(healthySource{fakeSource: fakeSource{snapshot: emptySnapshot()}, up: true})
	if out := up.Render(context.Background()); !strings.Contains(out, "gosession_backend_up 1") {
		t.Fatalf("expected backend_up 1, got:\n%s", out)
	}
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	engine, err := goSession.New().
		WithBackend(cache.NewMemoryBackend()).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.CreateSession(context.Background(), goSession.CreateSessionInput{UserID: "u1"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	NewPrometheusExporter(engine).Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "gosession_session_created_total 1") {
		t.Fatalf("expected created counter, got:\n%s", body)
	}
	if !strings.Contains(body, "gosession_backend_up 1") {
		t.Fatalf("expected backend up, got:\n%s", body)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSessionCreated:    1000,
				goSession.MetricSessionLookupHit:  90000,
				goSession.MetricSessionLookupMiss: 400,
				goSession.MetricSessionEvicted:    12,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricLookupLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		_ = exp.Render(ctx)
	}
}
