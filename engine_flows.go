package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/internal/flows"
)

func (e *Engine) invalidateFlow(ctx context.Context, sessionID string) (bool, error) {
	_, ok, err := e.invalidateByID(ctx, sessionID)
	return ok, err
}

func (e *Engine) limiterFlowDeps() flows.LimiterDeps {
	return flows.LimiterDeps{
		MaxSessionsPerUser: e.config.Session.MaxSessionsPerUser,
		ListUserSessions:   e.listUserSessions,
		Invalidate:         e.invalidateFlow,
	}
}

func (e *Engine) revokeFlowDeps() flows.RevokeDeps {
	return flows.RevokeDeps{
		ListUserSessions: e.listUserSessions,
		Invalidate:       e.invalidateFlow,
	}
}

func (e *Engine) monitorFlowDeps() flows.MonitorDeps {
	return flows.MonitorDeps{
		ScanSessionIDs:   e.scanSessionIDs,
		Lookup:           e.lookup,
		ListUserSessions: e.listUserSessions,
		LocationChanged:  e.location.LocationChanged,
		Thresholds:       e.config.Monitor.thresholds(),
		Now:              e.now,
	}
}

func (e *Engine) sweepFlowDeps() flows.SweepDeps {
	return flows.SweepDeps{
		ScanSessionIDs: e.scanSessionIDs,
		Load:           e.store.Get,
		Expire:         e.expireSession,
		Purge:          e.store.Delete,
		Now:            e.now,
	}
}

func (e *Engine) statisticsFlowDeps() flows.StatisticsDeps {
	return flows.StatisticsDeps{
		ScanSessionIDs: e.scanSessionIDs,
		LoadMany:       e.store.GetMany,
		Denylisted:     e.blacklist.Denylisted,
		Now:            e.now,
	}
}

func (e *Engine) introspectionFlowDeps() flows.IntrospectionDeps {
	return flows.IntrospectionDeps{
		Store:             e.store,
		ListUserSessions:  e.listUserSessions,
		EngineNotReadyErr: ErrEngineNotReady,
		ValidationErr:     ErrValidation,
	}
}

func (e *Engine) scanSessionIDs(ctx context.Context, fn func(sessionID string) error) error {
	if err := e.store.ScanSessionIDs(ctx, fn); err != nil {
		return storageError("scan sessions", err)
	}
	return nil
}
