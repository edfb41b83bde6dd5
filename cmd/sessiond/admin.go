package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/go-chi/chi/v5"
)

type adminEngine interface {
	Health(ctx context.Context) goSession.HealthStatus
	GetStatistics(ctx context.Context) goSession.Statistics
	ScanSuspicious(ctx context.Context) (goSession.SuspiciousReport, error)
	AutoRevokeSuspicious(ctx context.Context) (int, error)
	SweepExpired(ctx context.Context) (goSession.SweepReport, error)
	SecurityReport() goSession.SecurityReport
}

type suspiciousEntry struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	Reasons      []string  `json:"reasons"`
}

type suspiciousResponse struct {
	Scanned    int               `json:"scanned"`
	Failures   int               `json:"failures"`
	ScannedAt  time.Time         `json:"scanned_at"`
	Suspicious []suspiciousEntry `json:"suspicious"`
}

// adminRouter mounts the operator endpoints. None of them accept or return
// session credentials for end users.
func adminRouter(engine *goSession.Engine, logger *slog.Logger) chi.Router {
	return newAdminRouter(engine, prometheus.NewPrometheusExporter(engine).Handler(), logger)
}

func newAdminRouter(engine adminEngine, metrics http.Handler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := engine.Health(req.Context())
		code := http.StatusOK
		if !status.BackendAvailable {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"backend_available": status.BackendAvailable,
			"backend_latency":   status.BackendLatency.String(),
		})
	})

	r.Handle("/metrics", metrics)

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, engine.GetStatistics(req.Context()))
	})

	r.Get("/security", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, engine.SecurityReport())
	})

	r.Route("/suspicious", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			report, err := engine.ScanSuspicious(req.Context())
			if err != nil {
				logger.ErrorContext(req.Context(), "suspicious scan failed", slog.Any("error", err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, toSuspiciousResponse(report))
		})
		r.Post("/revoke", func(w http.ResponseWriter, req *http.Request) {
			n, err := engine.AutoRevokeSuspicious(req.Context())
			if err != nil {
				logger.ErrorContext(req.Context(), "auto revoke failed", slog.Any("error", err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
				return
			}
			logger.InfoContext(req.Context(), "suspicious sessions revoked", slog.Int("count", n))
			writeJSON(w, http.StatusOK, map[string]int{"revoked": n})
		})
	})

	r.Post("/sweep", func(w http.ResponseWriter, req *http.Request) {
		report, err := engine.SweepExpired(req.Context())
		if err != nil {
			logger.ErrorContext(req.Context(), "sweep failed", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	return r
}

func toSuspiciousResponse(report goSession.SuspiciousReport) suspiciousResponse {
	out := suspiciousResponse{
		Scanned:    report.Scanned,
		Failures:   report.Failures,
		ScannedAt:  report.ScannedAt,
		Suspicious: make([]suspiciousEntry, 0, len(report.Suspicious)),
	}
	for _, s := range report.Suspicious {
		reasons := slices.Clone(report.Reasons[s.SessionID])
		if reasons == nil {
			reasons = []string{}
		}
		out.Suspicious = append(out.Suspicious, suspiciousEntry{
			SessionID:    s.SessionID,
			UserID:       s.UserID,
			TenantID:     s.TenantID,
			IPAddress:    s.Client.IPAddress,
			LastActivity: s.LastActivity,
			Reasons:      reasons,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
