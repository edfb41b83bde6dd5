package security

import "time"

// Report is the configuration posture of an engine.
type Report struct {
	DistributedMode        bool
	PartitionCount         int
	PartitionSchemePinned  bool
	SessionTimeout         time.Duration
	ExtendOnActivity       bool
	MaxSessionsPerUser     int
	SessionCapsActive      bool
	CrossProcessUserLock   bool
	AnomalyScanActive      bool
	AutoRevokeActive       bool
	SweeperActive          bool
	LocationDetectorActive bool
	MaxDistinctIPs         int
	InactiveAfter          time.Duration
}

type ReportInput struct {
	DistributedMode        bool
	PartitionCount         int
	PartitionSchemeGuard   bool
	SessionTimeout         time.Duration
	ExtendOnActivity       bool
	MaxSessionsPerUser     int
	SchedulerEnabled       bool
	SweepInterval          time.Duration
	ScanInterval           time.Duration
	ScanAutoRevoke         bool
	LocationDetectorActive bool
	Thresholds             Thresholds
}

func BuildReport(input ReportInput) Report {
	partitions := max(input.PartitionCount, 1)
	if !input.DistributedMode {
		partitions = 1
	}
	scanActive := input.SchedulerEnabled && input.ScanInterval > 0

	return Report{
		DistributedMode:        input.DistributedMode,
		PartitionCount:         partitions,
		PartitionSchemePinned:  input.PartitionSchemeGuard,
		SessionTimeout:         input.SessionTimeout,
		ExtendOnActivity:       input.ExtendOnActivity,
		MaxSessionsPerUser:     input.MaxSessionsPerUser,
		SessionCapsActive:      input.MaxSessionsPerUser > 0,
		CrossProcessUserLock:   input.DistributedMode,
		AnomalyScanActive:      scanActive,
		AutoRevokeActive:       scanActive && input.ScanAutoRevoke,
		SweeperActive:          input.SchedulerEnabled && input.SweepInterval > 0,
		LocationDetectorActive: input.LocationDetectorActive,
		MaxDistinctIPs:         input.Thresholds.MaxDistinctIPs,
		InactiveAfter:          input.Thresholds.InactiveAfter,
	}
}
