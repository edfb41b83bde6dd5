package goSession

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	clock  *testClock
}

// advance moves both the engine clock and the cache TTLs.
func (env *testEnv) advance(d time.Duration) {
	env.clock.Advance(d)
	env.mr.FastForward(d)
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Session.MaxSessionsPerUser = 3
	cfg.Scheduler.Enabled = false
	cfg.Metrics.Enabled = true
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, cfg Config, opts ...func(*Builder)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := newTestClock()
	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithClock(clock.Now).
		WithLogger(discardLogger())
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, mr: mr, rdb: rdb, clock: clock}
}

func newMemoryBackend(t testing.TB, clock *testClock) *cache.MemoryBackend {
	t.Helper()
	backend := cache.NewMemoryBackend(cache.WithMemoryClock(clock.Now))
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func mustCreate(t *testing.T, env *testEnv, ctx context.Context, in CreateSessionInput) *Session {
	t.Helper()
	sess, err := env.engine.CreateSession(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, sess)
	return sess
}

func sessionIDs(sessions []*Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.SessionID
	}
	return out
}
