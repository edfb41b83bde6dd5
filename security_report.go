package goSession

import "github.com/MrEthical07/goSession/internal/security"

// SecurityReport describes the effective security posture of the engine's
// configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	_, detector := e.location.(noLocationSignal)

	cfg := e.config
	return security.BuildReport(security.ReportInput{
		DistributedMode:        cfg.Cluster.DistributedMode,
		PartitionCount:         cfg.Cluster.PartitionCount,
		PartitionSchemeGuard:   cfg.Cluster.EnforcePartitionScheme,
		SessionTimeout:         cfg.Session.Timeout(),
		ExtendOnActivity:       cfg.Session.ExtendOnActivity,
		MaxSessionsPerUser:     cfg.Session.MaxSessionsPerUser,
		SchedulerEnabled:       cfg.Scheduler.Enabled,
		SweepInterval:          cfg.Scheduler.SweepInterval,
		ScanInterval:           cfg.Scheduler.ScanInterval,
		ScanAutoRevoke:         cfg.Scheduler.ScanAutoRevoke,
		LocationDetectorActive: !detector,
		Thresholds:             cfg.Monitor.thresholds(),
	})
}
