package flows

import (
	"context"
	"time"
)

type IntrospectionStore interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// IntrospectionDeps captures health and counting dependencies.
type IntrospectionDeps struct {
	Store             IntrospectionStore
	ListUserSessions  ListSessionsFunc
	EngineNotReadyErr error
	ValidationErr     error
}

func RunActiveSessionCount(ctx context.Context, userID string, deps IntrospectionDeps) (int, error) {
	if deps.ListUserSessions == nil {
		return 0, deps.EngineNotReadyErr
	}
	if userID == "" {
		return 0, deps.ValidationErr
	}

	sessions, err := deps.ListUserSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

func RunHealth(ctx context.Context, deps IntrospectionDeps) (bool, time.Duration) {
	if deps.Store == nil {
		return false, 0
	}
	latency, err := deps.Store.Ping(ctx)
	return err == nil, latency
}
