package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal/security"
	"github.com/MrEthical07/goSession/session"
)

// LookupFunc resolves a session id the way a request would. It returns a nil
// session when the id is absent, expired, or blacklisted.
type LookupFunc func(ctx context.Context, sessionID string) (*session.Session, error)

// LocationFunc is the geolocation hook. It reports whether s moved implausibly
// relative to the owner's other sessions.
type LocationFunc func(ctx context.Context, s *session.Session, owned []*session.Session) (bool, error)

// MonitorDeps captures suspicious-session scan dependencies.
type MonitorDeps struct {
	ScanSessionIDs   ScanFunc
	Lookup           LookupFunc
	ListUserSessions ListSessionsFunc
	LocationChanged  LocationFunc
	Thresholds       security.Thresholds
	Now              func() time.Time
}

// ScanResult is the output of one system-wide scan.
type ScanResult struct {
	Suspicious []*session.Session
	Reasons    map[string][]string
	Scanned    int
	Failures   int
}

// RunScanSuspicious evaluates every live session against the heuristics.
// Each owner's session list is fetched once per scan. Per-session lookup
// failures are counted and skipped; only an enumeration failure aborts.
func RunScanSuspicious(ctx context.Context, deps MonitorDeps) (ScanResult, error) {
	result := ScanResult{Reasons: make(map[string][]string)}
	owners := make(map[string][]*session.Session)

	err := deps.ScanSessionIDs(ctx, func(sessionID string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		sess, err := deps.Lookup(ctx, sessionID)
		if err != nil {
			result.Failures++
			return nil
		}
		if sess == nil {
			return nil
		}
		result.Scanned++

		owned, ok := owners[sess.UserID]
		if !ok {
			owned, err = deps.ListUserSessions(ctx, sess.UserID)
			if err != nil {
				result.Failures++
				owned = []*session.Session{sess}
			}
			owners[sess.UserID] = owned
		}

		located := false
		if deps.LocationChanged != nil {
			if moved, locErr := deps.LocationChanged(ctx, sess, owned); locErr == nil {
				located = moved
			}
		}

		reasons := security.Evaluate(sess, owned, nowOrDefault(deps.Now), deps.Thresholds, located)
		if len(reasons) > 0 {
			result.Suspicious = append(result.Suspicious, sess)
			result.Reasons[sess.SessionID] = reasons
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// RunAutoRevoke invalidates every session flagged in result and returns the
// number actually revoked.
func RunAutoRevoke(ctx context.Context, result ScanResult, invalidate InvalidateFunc) (int, error) {
	var (
		revoked int
		errs    []error
	)
	for _, sess := range result.Suspicious {
		ok, err := invalidate(ctx, sess.SessionID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			revoked++
		}
	}
	return revoked, errors.Join(errs...)
}
