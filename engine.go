package goSession

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/cache"
	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/lock"
	"github.com/MrEthical07/goSession/session"
)

var errLockTimeout = lock.ErrLockTimeout

// Engine is the session lifecycle manager. It composes the record store, the
// per-user and per-tenant indexes and the blacklist, and owns the background
// scheduler.
//
// Engine is safe for concurrent use. Cross-store updates are ordered, not
// transactional: a failure between steps can leave an index entry pointing at
// a missing record, which later reads heal.
//
//	Docs: docs/engine.md
type Engine struct {
	config    Config
	backend   cache.Backend
	keys      session.Keyspace
	store     *session.Store
	index     *session.Index
	blacklist *session.Blacklist
	locker    lock.Locker
	location  LocationChangeDetector
	audit     *audit.Dispatcher
	metrics   *Metrics
	logger    *slog.Logger
	clock     func() time.Time

	mu        sync.Mutex
	scheduler *scheduler
}

// Close stops the background scheduler and flushes the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.stopScheduler()
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n int) {
	if e == nil || e.metrics == nil || n <= 0 {
		return
	}
	e.metrics.Add(id, uint64(n))
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

func (e *Engine) timeout() time.Duration {
	return e.config.Session.Timeout()
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil
}

// CreateSession issues a new session for in.UserID.
//
// Before writing, the per-user cap is enforced by invalidating the least
// recently active sessions until the new one fits; creation never fails
// because of the cap. The limiter and the write run under a per-user lock. If
// that lock cannot be taken in time, creation proceeds unserialized.
//
// Storage failures are returned wrapped in [ErrStorageFailure].
//
//	Performance: 1 lock round trip + limiter listing + 3-5 writes.
//	Docs: docs/engine.md
func (e *Engine) CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	tenantID := in.TenantID
	if tenantID == "" {
		tenantID = tenantIDFromContext(ctx)
	}
	client := e.clientContext(ctx, in.Client)

	unlock, err := e.lockUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	evicted, err := flows.RunEnforceSessionLimit(ctx, userID, e.limiterFlowDeps())
	for _, id := range evicted {
		e.metricInc(MetricSessionEvicted)
		e.emitAudit(ctx, auditEventSessionEvicted, AuditSeverityInfo, true, userID, tenantID, id, nil, func() map[string]string {
			return map[string]string{"reason": "session_limit"}
		})
	}
	if err != nil {
		e.emitAudit(ctx, auditEventSessionCreated, AuditSeverityWarning, false, userID, tenantID, "", err, nil)
		return nil, err
	}

	sessionID, err := internal.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := e.now()
	timeout := e.timeout()
	sess := &Session{
		SchemaVersion: session.CurrentSchemaVersion,
		SessionID:     sessionID,
		UserID:        userID,
		TenantID:      tenantID,
		Client:        client,
		LoginTime:     now,
		LastActivity:  now,
		ExpiresAt:     now.Add(timeout),
		IsActive:      true,
		Metadata:      maps.Clone(in.Metadata),
	}

	if err := e.store.Save(ctx, sess, timeout); err != nil {
		return nil, e.createFailed(ctx, sess, storageError("save session", err))
	}
	if err := e.index.AddUserSession(ctx, userID, sess.SessionID, 2*timeout); err != nil {
		return nil, e.createFailed(ctx, sess, storageError("index user session", err))
	}
	if tenantID != "" {
		if err := e.index.AddTenantSession(ctx, tenantID, sess.SessionID, 2*timeout); err != nil {
			return nil, e.createFailed(ctx, sess, storageError("index tenant session", err))
		}
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, AuditSeverityInfo, true, userID, tenantID, sess.SessionID, nil, func() map[string]string {
		md := map[string]string{"evicted": fmt.Sprint(len(evicted))}
		if client.UserAgent != "" {
			md["user_agent"] = client.UserAgent
		}
		return md
	})

	return sess.Clone(), nil
}

func (e *Engine) createFailed(ctx context.Context, sess *Session, err error) error {
	e.metricInc(MetricStorageFailure)
	e.emitAudit(ctx, auditEventSessionCreated, AuditSeverityWarning, false, sess.UserID, sess.TenantID, sess.SessionID, err, nil)
	return err
}

func (e *Engine) clientContext(ctx context.Context, in ClientContext) ClientContext {
	out := in
	if out.IPAddress == "" {
		out.IPAddress = clientIPFromContext(ctx)
	}
	if out.UserAgent == "" {
		out.UserAgent = userAgentFromContext(ctx)
	}
	if out.DeviceID == "" {
		out.DeviceID = deviceIDFromContext(ctx)
	}
	out.IPAddress = internal.NormalizeClientIP(out.IPAddress)
	out.UserAgent = internal.NormalizeUserAgent(out.UserAgent)
	return out
}

func (e *Engine) lockUser(ctx context.Context, userID string) (func(), error) {
	unlock, err := e.locker.Lock(ctx, userID)
	switch {
	case err == nil:
		return unlock, nil
	case errors.Is(err, lock.ErrLockTimeout):
		e.metricInc(MetricLockTimeout)
		e.logger.WarnContext(ctx, "session limiter lock not acquired; creating unserialized",
			slog.String("user_id", userID))
		e.emitAudit(ctx, auditEventLockContention, AuditSeverityWarning, false, userID, "", "", err, nil)
		return func() {}, nil
	case ctx.Err() != nil:
		return nil, err
	default:
		e.metricInc(MetricStorageFailure)
		return nil, storageError("lock user", err)
	}
}

// GetSession returns the live session with the given id.
//
// Absent, expired and blacklisted sessions all yield [ErrSessionNotFound].
// An expired record found here is cleaned up as a side effect. Backend
// failures are logged and also reported as [ErrSessionNotFound], so a caller
// cannot tell an unavailable cache from a missing session. GetSession never
// extends the session; see [Engine.TouchSession].
//
//	Performance: 2 GETs.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	sess, err := e.lookup(ctx, sessionID)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricLookupLatency, time.Since(start))
	}
	if err != nil {
		e.metricInc(MetricStorageFailure)
		e.logger.ErrorContext(ctx, "session lookup failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return nil, ErrSessionNotFound
	}
	if sess == nil {
		e.metricInc(MetricSessionLookupMiss)
		return nil, ErrSessionNotFound
	}

	e.metricInc(MetricSessionLookupHit)
	return sess, nil
}

// lookup resolves a session id the way a request would. It returns a nil
// session when the id is absent, blacklisted, corrupt or logically expired;
// the error is reserved for backend failures.
func (e *Engine) lookup(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	sess, err := e.store.Get(ctx, sessionID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil, nil
	case errors.Is(err, session.ErrCorruptRecord):
		e.logger.WarnContext(ctx, "unreadable session record",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return nil, nil
	case err != nil:
		return nil, storageError("load session", err)
	}

	blacklisted, err := e.blacklist.Contains(ctx, sessionID)
	if err != nil {
		return nil, storageError("check blacklist", err)
	}
	if blacklisted {
		e.metricInc(MetricBlacklistHit)
		return nil, nil
	}

	if sess.Expired(e.now()) {
		if err := e.expireSession(ctx, sess); err != nil {
			e.logger.WarnContext(ctx, "expired session cleanup failed",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()))
		}
		return nil, nil
	}
	return sess, nil
}

// TouchSession records activity on a live session and merges patch into its
// metadata (new keys win). With ExtendOnActivity the expiry slides to
// now+timeout; otherwise it is left unchanged. It returns false when the
// session is not live.
//
// The write only lands while the record still exists, so a concurrent
// invalidation is never undone.
//
//	Performance: 2 GETs + 1 SET XX (+ 2 index refreshes when extending).
func (e *Engine) TouchSession(ctx context.Context, sessionID string, patch map[string]any) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	sess, err := e.lookup(ctx, sessionID)
	if err != nil {
		e.metricInc(MetricStorageFailure)
		return false, err
	}
	if sess == nil {
		return false, nil
	}

	now := e.now()
	timeout := e.timeout()
	sess.LastActivity = now
	if e.config.Session.ExtendOnActivity {
		sess.ExpiresAt = now.Add(timeout)
	}
	sess.MergeMetadata(patch)

	ttl := sess.Remaining(now)
	if ttl <= 0 {
		return false, nil
	}
	replaced, err := e.store.Replace(ctx, sess, ttl)
	if err != nil {
		e.metricInc(MetricStorageFailure)
		return false, storageError("save session", err)
	}
	if !replaced {
		// Invalidated or expired between the lookup and the write.
		return false, nil
	}

	if e.config.Session.ExtendOnActivity {
		if err := e.index.AddUserSession(ctx, sess.UserID, sess.SessionID, 2*timeout); err != nil {
			e.metricInc(MetricStorageFailure)
			return false, storageError("refresh user index", err)
		}
		if sess.TenantID != "" {
			if err := e.index.AddTenantSession(ctx, sess.TenantID, sess.SessionID, 2*timeout); err != nil {
				e.metricInc(MetricStorageFailure)
				return false, storageError("refresh tenant index", err)
			}
		}
	}

	e.metricInc(MetricSessionTouched)
	return true, nil
}

// InvalidateSession ends a live session. The id is blacklisted for the rest
// of its original lifetime, then the record and its index entries are
// removed. It returns false when the session was not live, so a second call
// on the same id returns false.
//
// Storage failures are returned wrapped in [ErrStorageFailure].
//
//	Performance: 2 GETs + 1 SET + 1 DEL + 1-2 SREM.
func (e *Engine) InvalidateSession(ctx context.Context, sessionID string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	sess, ok, err := e.invalidateByID(ctx, sessionID)
	if err != nil {
		var userID, tenantID string
		if sess != nil {
			userID, tenantID = sess.UserID, sess.TenantID
		}
		e.emitAudit(ctx, auditEventSessionInvalidated, AuditSeverityWarning, false, userID, tenantID, sessionID, err, nil)
		return false, err
	}
	if !ok {
		return false, nil
	}

	e.emitAudit(ctx, auditEventSessionInvalidated, AuditSeverityInfo, true, sess.UserID, sess.TenantID, sessionID, nil, nil)
	return true, nil
}

func (e *Engine) invalidateByID(ctx context.Context, sessionID string) (*Session, bool, error) {
	sess, err := e.lookup(ctx, sessionID)
	if err != nil {
		e.metricInc(MetricStorageFailure)
		return nil, false, err
	}
	if sess == nil {
		return nil, false, nil
	}
	if err := e.invalidate(ctx, sess); err != nil {
		e.metricInc(MetricStorageFailure)
		return sess, false, err
	}
	e.metricInc(MetricSessionInvalidated)
	return sess, true, nil
}

// invalidate removes a live session. The blacklist write comes first so that
// a failure in a later step never leaves the id usable.
func (e *Engine) invalidate(ctx context.Context, sess *Session) error {
	if err := e.blacklist.Add(ctx, sess.SessionID, sess.Remaining(e.now())); err != nil {
		return storageError("blacklist session", err)
	}
	if err := e.store.Delete(ctx, sess.SessionID); err != nil {
		return storageError("delete session", err)
	}
	return e.unindex(ctx, sess)
}

// expireSession drops a logically expired record. Its id needs no blacklist
// entry since the remaining lifetime is already zero.
func (e *Engine) expireSession(ctx context.Context, sess *Session) error {
	if err := e.store.Delete(ctx, sess.SessionID); err != nil {
		return storageError("delete expired session", err)
	}
	if err := e.unindex(ctx, sess); err != nil {
		return err
	}
	e.metricInc(MetricSessionExpired)
	e.emitAudit(ctx, auditEventSessionExpired, AuditSeverityInfo, true, sess.UserID, sess.TenantID, sess.SessionID, nil, nil)
	return nil
}

func (e *Engine) unindex(ctx context.Context, sess *Session) error {
	if err := e.index.RemoveUserSessions(ctx, sess.UserID, sess.SessionID); err != nil {
		return storageError("unindex user session", err)
	}
	if sess.TenantID != "" {
		if err := e.index.RemoveTenantSessions(ctx, sess.TenantID, sess.SessionID); err != nil {
			return storageError("unindex tenant session", err)
		}
	}
	return nil
}

// RevokeAllSessions invalidates every live session of userID except
// exceptSessionID, which may be empty. It returns the number revoked. A
// failure on one session does not stop the others; all failures are joined
// into the returned error.
func (e *Engine) RevokeAllSessions(ctx context.Context, userID, exceptSessionID string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	result, err := flows.RunRevokeAll(ctx, userID, exceptSessionID, e.revokeFlowDeps())
	e.metricInc(MetricRevokeAll)

	severity := AuditSeverityWarning
	if err == nil {
		severity = AuditSeverityInfo
	}
	e.emitAudit(ctx, auditEventSessionsRevoked, severity, err == nil, userID, "", "", err, func() map[string]string {
		md := map[string]string{"count": fmt.Sprint(len(result.Revoked))}
		if result.Skipped != "" {
			md["kept_session_id"] = result.Skipped
		}
		return md
	})

	return len(result.Revoked), err
}

// ListUserSessions returns the live sessions of userID, most recently active
// first. Index entries whose record is gone are pruned on the way. Backend
// failures are logged and yield an empty slice.
func (e *Engine) ListUserSessions(ctx context.Context, userID string) []*Session {
	if !e.ready() || userID == "" {
		return []*Session{}
	}

	sessions, err := e.listUserSessions(ctx, userID)
	if err != nil {
		e.metricInc(MetricStorageFailure)
		e.logger.ErrorContext(ctx, "list user sessions failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return []*Session{}
	}
	return sessions
}

func (e *Engine) listUserSessions(ctx context.Context, userID string) ([]*Session, error) {
	ids, err := e.index.UserSessionIDs(ctx, userID)
	if err != nil {
		return nil, storageError("read user index", err)
	}

	sessions := make([]*Session, 0, len(ids))
	var dangling []string
	for _, id := range ids {
		sess, err := e.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			dangling = append(dangling, id)
			continue
		}
		sessions = append(sessions, sess)
	}

	if len(dangling) > 0 {
		if err := e.index.RemoveUserSessions(ctx, userID, dangling...); err != nil {
			e.logger.WarnContext(ctx, "prune user index failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	}

	slices.SortFunc(sessions, func(a, b *Session) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})
	return sessions, nil
}

func storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
