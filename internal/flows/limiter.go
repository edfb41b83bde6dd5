package flows

import (
	"cmp"
	"context"
	"slices"

	"github.com/MrEthical07/goSession/session"
)

// LimiterDeps captures concurrency-limit dependencies.
type LimiterDeps struct {
	MaxSessionsPerUser int
	ListUserSessions   ListSessionsFunc
	Invalidate         InvalidateFunc
}

// EvictionOrder sorts sessions oldest-idle first; equal activity times fall
// back to session id order so the choice is deterministic.
func EvictionOrder(sessions []*session.Session) {
	slices.SortStableFunc(sessions, func(a, b *session.Session) int {
		if c := a.LastActivity.Compare(b.LastActivity); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})
}

// RunEnforceSessionLimit makes room for one more session of userID. It never
// rejects: when the user already holds MaxSessionsPerUser or more live
// sessions, the least recently active ones are invalidated until exactly
// MaxSessionsPerUser-1 remain. It returns the evicted session ids.
func RunEnforceSessionLimit(ctx context.Context, userID string, deps LimiterDeps) ([]string, error) {
	if deps.MaxSessionsPerUser <= 0 {
		return nil, nil
	}

	sessions, err := deps.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sessions) < deps.MaxSessionsPerUser {
		return nil, nil
	}

	EvictionOrder(sessions)
	excess := len(sessions) - deps.MaxSessionsPerUser + 1

	evicted := make([]string, 0, excess)
	for _, sess := range sessions[:excess] {
		ok, err := deps.Invalidate(ctx, sess.SessionID)
		if err != nil {
			return evicted, err
		}
		if ok {
			evicted = append(evicted, sess.SessionID)
		}
	}
	return evicted, nil
}
