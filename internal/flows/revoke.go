package flows

import (
	"context"
	"errors"
)

// RevokeDeps captures bulk revocation dependencies.
type RevokeDeps struct {
	ListUserSessions ListSessionsFunc
	Invalidate       InvalidateFunc
}

// RevokeResult summarises a bulk revocation.
type RevokeResult struct {
	Revoked []string
	Skipped string
}

// RunRevokeAll invalidates every live session of userID except exceptSessionID.
// Individual failures do not stop the loop; they are joined into the error.
func RunRevokeAll(ctx context.Context, userID, exceptSessionID string, deps RevokeDeps) (RevokeResult, error) {
	var result RevokeResult

	sessions, err := deps.ListUserSessions(ctx, userID)
	if err != nil {
		return result, err
	}

	var errs []error
	for _, sess := range sessions {
		if exceptSessionID != "" && sess.SessionID == exceptSessionID {
			result.Skipped = sess.SessionID
			continue
		}
		ok, err := deps.Invalidate(ctx, sess.SessionID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			result.Revoked = append(result.Revoked, sess.SessionID)
		}
	}
	return result, errors.Join(errs...)
}
