package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// ListSessionsFunc returns the live sessions of one user.
type ListSessionsFunc func(ctx context.Context, userID string) ([]*session.Session, error)

// InvalidateFunc invalidates one session and reports whether it was live.
type InvalidateFunc func(ctx context.Context, sessionID string) (bool, error)

// ScanFunc enumerates every stored session id.
type ScanFunc func(ctx context.Context, fn func(sessionID string) error) error

func nowOrDefault(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
