package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// SweepDeps captures expired-session sweeper dependencies.
type SweepDeps struct {
	ScanSessionIDs ScanFunc
	// Load reads the raw record without logical expiry checks.
	Load func(ctx context.Context, sessionID string) (*session.Session, error)
	// Expire removes an expired record together with its index entries.
	Expire func(ctx context.Context, sess *session.Session) error
	// Purge drops a record that can no longer be decoded.
	Purge func(ctx context.Context, sessionID string) error
	Now   func() time.Time
}

// SweepResult summarises one sweeper pass.
type SweepResult struct {
	Scanned int
	Expired int
	Purged  int
	Failed  int
}

// RunSweep reconciles logically expired records with the index sets. Records
// the cache already evicted are skipped; their index entries are healed
// lazily on the next listing.
func RunSweep(ctx context.Context, deps SweepDeps) (SweepResult, error) {
	var (
		result SweepResult
		errs   []error
	)

	err := deps.ScanSessionIDs(ctx, func(sessionID string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Scanned++

		sess, err := deps.Load(ctx, sessionID)
		switch {
		case errors.Is(err, session.ErrNotFound):
			return nil
		case errors.Is(err, session.ErrCorruptRecord):
			if deps.Purge == nil {
				return nil
			}
			if purgeErr := deps.Purge(ctx, sessionID); purgeErr != nil {
				result.Failed++
				errs = append(errs, purgeErr)
				return nil
			}
			result.Purged++
			return nil
		case err != nil:
			result.Failed++
			errs = append(errs, err)
			return nil
		}

		if !sess.Expired(nowOrDefault(deps.Now)) {
			return nil
		}
		if err := deps.Expire(ctx, sess); err != nil {
			result.Failed++
			errs = append(errs, err)
			return nil
		}
		result.Expired++
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, errors.Join(errs...)
}
