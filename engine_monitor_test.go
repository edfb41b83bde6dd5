package goSession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monitorTestConfig() Config {
	cfg := testConfig()
	cfg.Session.MaxSessionsPerUser = 10
	cfg.Session.TimeoutSeconds = int((7 * 24 * time.Hour).Seconds())
	return cfg
}

func createFromIP(t *testing.T, env *testEnv, userID, ip string) *Session {
	t.Helper()
	return mustCreate(t, env, context.Background(), CreateSessionInput{
		UserID: userID,
		Client: ClientContext{IPAddress: ip, UserAgent: "Mozilla/5.0"},
	})
}

func TestScanFlagsIPFanout(t *testing.T) {
	env := newTestEngine(t, monitorTestConfig())

	var fanned []*Session
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		fanned = append(fanned, createFromIP(t, env, "user-1", ip))
	}
	calm := []*Session{
		createFromIP(t, env, "user-2", "10.1.0.1"),
		createFromIP(t, env, "user-2", "10.1.0.2"),
	}

	report, err := env.engine.ScanSuspicious(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, report.Scanned)
	assert.Len(t, report.Suspicious, 4)

	for _, s := range fanned {
		assert.Contains(t, report.Reasons[s.SessionID], ReasonIPFanout)
	}
	for _, s := range calm {
		assert.NotContains(t, report.Reasons, s.SessionID)
	}
	assert.Equal(t, uint64(4), env.engine.MetricsSnapshot().Counters[MetricSuspiciousFlagged])
}

func TestScanIPFanoutThresholdIsStrict(t *testing.T) {
	env := newTestEngine(t, monitorTestConfig())

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.3"} {
		createFromIP(t, env, "user-1", ip)
	}

	report, err := env.engine.ScanSuspicious(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Suspicious)
	assert.NotNil(t, report.Suspicious)
}

func TestScanFlagsDenylistedUserAgent(t *testing.T) {
	env := newTestEngine(t, monitorTestConfig())
	ctx := context.Background()

	bot := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-1", Client: ClientContext{UserAgent: "curl/8.4.0"}})
	browser := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-1", Client: ClientContext{UserAgent: "Mozilla/5.0"}})
	crawler := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-2", Client: ClientContext{UserAgent: "Googlebot/2.1 (+http://www.google.com/bot.html)"}})

	report, err := env.engine.ScanSuspicious(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{ReasonUserAgent}, report.Reasons[bot.SessionID])
	assert.Equal(t, []string{ReasonUserAgent}, report.Reasons[crawler.SessionID])
	assert.NotContains(t, report.Reasons, browser.SessionID)
}

func TestScanFlagsLongInactive(t *testing.T) {
	env := newTestEngine(t, monitorTestConfig())
	ctx := context.Background()

	idle := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-1"})
	env.advance(23 * time.Hour)
	busy := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-2"})
	env.advance(2 * time.Hour)

	report, err := env.engine.ScanSuspicious(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{ReasonLongInactive}, report.Reasons[idle.SessionID])
	assert.NotContains(t, report.Reasons, busy.SessionID)
}

func TestScanUsesLocationDetector(t *testing.T) {
	var moved string
	detector := LocationChangeDetectorFunc(func(_ context.Context, s *Session, owned []*Session) (bool, error) {
		if len(owned) == 0 {
			return false, errors.New("owner sessions missing")
		}
		return s.SessionID == moved, nil
	})
	env := newTestEngine(t, monitorTestConfig(), func(b *Builder) { b.WithLocationChangeDetector(detector) })
	ctx := context.Background()

	a := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-1"})
	b := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-1"})
	moved = b.SessionID

	report, err := env.engine.ScanSuspicious(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ReasonLocationChange}, report.Reasons[b.SessionID])
	assert.NotContains(t, report.Reasons, a.SessionID)
}

func TestScanIgnoresLocationDetectorErrors(t *testing.T) {
	detector := LocationChangeDetectorFunc(func(context.Context, *Session, []*Session) (bool, error) {
		return true, errors.New("geoip lookup failed")
	})
	env := newTestEngine(t, monitorTestConfig(), func(b *Builder) { b.WithLocationChangeDetector(detector) })

	mustCreate(t, env, context.Background(), CreateSessionInput{UserID: "user-1"})

	report, err := env.engine.ScanSuspicious(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Suspicious)
}

func TestScanSkipsInvalidatedAndExpired(t *testing.T) {
	cfg := monitorTestConfig()
	cfg.Session.TimeoutSeconds = 60
	env := newTestEngine(t, cfg)
	ctx := context.Background()

	gone := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-1", Client: ClientContext{UserAgent: "wget/1.21"}})
	_, err := env.engine.InvalidateSession(ctx, gone.SessionID)
	require.NoError(t, err)

	mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-2", Client: ClientContext{UserAgent: "PostmanRuntime/7.36"}})
	env.clock.Advance(2 * time.Minute)

	report, err := env.engine.ScanSuspicious(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Empty(t, report.Suspicious)
}

func TestScanFailsWhenEnumerationFails(t *testing.T) {
	env := newTestEngine(t, monitorTestConfig())
	mustCreate(t, env, context.Background(), CreateSessionInput{UserID: "user-1"})

	env.mr.SetError("ERR backend unavailable")
	defer env.mr.SetError("")

	_, err := env.engine.ScanSuspicious(context.Background())
	require.ErrorIs(t, err, ErrStorageFailure)
}

func TestAutoRevokeInvalidatesOnlyFlagged(t *testing.T) {
	env := newTestEngine(t, monitorTestConfig())
	ctx := context.Background()

	bot := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-1", Client: ClientContext{UserAgent: "scrapy-scraper/2.11"}})
	human := mustCreate(t, env, ctx, CreateSessionInput{UserID: "user-1", Client: ClientContext{UserAgent: "Mozilla/5.0"}})

	n, err := env.engine.AutoRevokeSuspicious(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = env.engine.GetSession(ctx, bot.SessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = env.engine.GetSession(ctx, human.SessionID)
	require.NoError(t, err)

	n, err = env.engine.AutoRevokeSuspicious(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, uint64(1), env.engine.MetricsSnapshot().Counters[MetricAutoRevoked])
}

func TestScanEmitsAggregateAuditEvent(t *testing.T) {
	cfg := monitorTestConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 32
	cfg.Audit.DropIfFull = false

	sink := NewChannelSink(32)
	env := newTestEngine(t, cfg, func(b *Builder) { b.WithAuditSink(sink) })

	mustCreate(t, env, context.Background(), CreateSessionInput{UserID: "user-1", Client: ClientContext{UserAgent: "spider"}})

	_, err := env.engine.ScanSuspicious(context.Background())
	require.NoError(t, err)

	ev := nextEvent(t, sink, "suspicious_sessions_detected")
	assert.Equal(t, AuditSeverityWarning, ev.Severity)
	assert.Equal(t, "1", ev.Metadata["count"])
	assert.Equal(t, ReasonUserAgent+"=1", ev.Metadata["reasons"])
}

func TestReasonSummaryIsSortedAndCounted(t *testing.T) {
	got := reasonSummary(map[string][]string{
		"s1": {ReasonUserAgent, ReasonLongInactive},
		"s2": {ReasonUserAgent},
	})
	assert.Equal(t, ReasonLongInactive+"=1;"+ReasonUserAgent+"=2", got)
}

func TestSecurityReportReflectsConfig(t *testing.T) {
	cfg := monitorTestConfig()
	cfg.Cluster.DistributedMode = true
	cfg.Cluster.PartitionCount = 32
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.ScanAutoRevoke = true

	env := newTestEngine(t, cfg)
	report := env.engine.SecurityReport()

	assert.True(t, report.DistributedMode)
	assert.Equal(t, 32, report.PartitionCount)
	assert.True(t, report.CrossProcessUserLock)
	assert.True(t, report.AutoRevokeActive)
	assert.False(t, report.LocationDetectorActive)
	assert.Equal(t, 3, report.MaxDistinctIPs)
}
