package goSession

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/MrEthical07/goSession/internal/flows"
)

// ScanSuspicious evaluates every live session against the anomaly
// heuristics: IP fan-out across the owner's sessions, denylisted user
// agents, long-idle active sessions and, when a [LocationChangeDetector] is
// configured, rapid location changes.
//
// The scan walks the whole keyspace and is meant for background use only.
// Sessions that cannot be read are counted in Failures and skipped.
//
//	Performance: O(live sessions x sessions per owner); owners are cached per scan.
func (e *Engine) ScanSuspicious(ctx context.Context) (SuspiciousReport, error) {
	if !e.ready() {
		return SuspiciousReport{}, ErrEngineNotReady
	}

	result, err := e.scanSuspicious(ctx)
	report := SuspiciousReport{
		Suspicious: result.Suspicious,
		Reasons:    result.Reasons,
		Scanned:    result.Scanned,
		Failures:   result.Failures,
		ScannedAt:  e.now(),
	}
	if report.Suspicious == nil {
		report.Suspicious = []*Session{}
	}
	return report, err
}

func (e *Engine) scanSuspicious(ctx context.Context) (flows.ScanResult, error) {
	result, err := flows.RunScanSuspicious(ctx, e.monitorFlowDeps())
	if err != nil {
		e.logger.ErrorContext(ctx, "suspicious session scan failed",
			slog.Int("scanned", result.Scanned),
			slog.String("error", err.Error()))
		return result, err
	}

	e.metricAdd(MetricSuspiciousFlagged, len(result.Suspicious))
	if len(result.Suspicious) > 0 {
		e.logger.WarnContext(ctx, "suspicious sessions detected",
			slog.Int("scanned", result.Scanned),
			slog.Int("suspicious", len(result.Suspicious)))
		e.emitAudit(ctx, auditEventSuspiciousDetected, AuditSeverityWarning, true, "", "", "", nil, func() map[string]string {
			return map[string]string{
				"count":   fmt.Sprint(len(result.Suspicious)),
				"scanned": fmt.Sprint(result.Scanned),
				"reasons": reasonSummary(result.Reasons),
			}
		})
	}
	return result, nil
}

// AutoRevokeSuspicious runs [Engine.ScanSuspicious] and invalidates every
// flagged session. It returns how many were revoked.
func (e *Engine) AutoRevokeSuspicious(ctx context.Context) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	result, err := e.scanSuspicious(ctx)
	if err != nil {
		return 0, err
	}
	if len(result.Suspicious) == 0 {
		return 0, nil
	}

	revoked, err := flows.RunAutoRevoke(ctx, result, e.invalidateFlow)
	e.metricAdd(MetricAutoRevoked, revoked)
	e.logger.WarnContext(ctx, "suspicious sessions revoked",
		slog.Int("flagged", len(result.Suspicious)),
		slog.Int("revoked", revoked))
	e.emitAudit(ctx, auditEventAutoRevoke, AuditSeverityWarning, err == nil, "", "", "", err, func() map[string]string {
		return map[string]string{
			"flagged": fmt.Sprint(len(result.Suspicious)),
			"revoked": fmt.Sprint(revoked),
		}
	})
	return revoked, err
}

// reasonSummary counts sessions per reason as "reason=n" pairs.
func reasonSummary(reasons map[string][]string) string {
	counts := make(map[string]int)
	var order []string
	for _, rs := range reasons {
		for _, r := range rs {
			if counts[r] == 0 {
				order = append(order, r)
			}
			counts[r]++
		}
	}
	slices.Sort(order)

	parts := make([]string, len(order))
	for i, r := range order {
		parts[i] = fmt.Sprintf("%s=%d", r, counts[r])
	}
	return strings.Join(parts, ";")
}
