package cache

import (
	"bytes"
	"context"
	"path"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	members   map[string]struct{}
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryOption configures a [MemoryBackend].
type MemoryOption func(*MemoryBackend)

// WithMemoryClock overrides the time source used for expiry decisions.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCleanupInterval starts a janitor goroutine that drops expired keys.
// Without it keys are expired lazily on access and during Scan.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(m *MemoryBackend) {
		m.cleanupInterval = interval
	}
}

// MemoryBackend keeps keys in a process-local map with per-key expiry.
// Nothing is shared between processes, so it only fits non-distributed
// deployments and tests.
type MemoryBackend struct {
	mu              sync.RWMutex
	entries         map[string]*memoryEntry
	now             func() time.Time
	cleanupInterval time.Duration
	ticker          *time.Ticker
	done            chan struct{}
	closeOnce       sync.Once
}

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cleanupInterval > 0 {
		m.ticker = time.NewTicker(m.cleanupInterval)
		go m.cleanupLoop()
	}
	return m
}

// Close stops the janitor, if any.
func (m *MemoryBackend) Close() error {
	m.closeOnce.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

func (m *MemoryBackend) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			m.deleteExpired()
		case <-m.done:
			return
		}
	}
}

func (m *MemoryBackend) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}

// live returns the entry for key, dropping it when expired. Caller holds mu.
func (m *MemoryBackend) live(key string, now time.Time) *memoryEntry {
	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	if entry.expired(now) {
		delete(m.entries, key)
		return nil
	}
	return entry
}

func (m *MemoryBackend) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key, m.now())
	if entry == nil || entry.members != nil {
		return nil, ErrMiss
	}
	return bytes.Clone(entry.value), nil
}

func (m *MemoryBackend) GetMany(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, key := range keys {
		data, err := m.Get(ctx, key)
		if err != nil {
			continue
		}
		out[i] = data
	}
	return out, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &memoryEntry{value: bytes.Clone(value), expiresAt: m.deadline(ttl)}
	return nil
}

func (m *MemoryBackend) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.live(key, m.now()) != nil {
		return false, nil
	}
	m.entries[key] = &memoryEntry{value: bytes.Clone(value), expiresAt: m.deadline(ttl)}
	return true, nil
}

func (m *MemoryBackend) SetXX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.live(key, m.now()) == nil {
		return false, nil
	}
	m.entries[key] = &memoryEntry{value: bytes.Clone(value), expiresAt: m.deadline(ttl)}
	return true, nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryBackend) DeleteIfEquals(_ context.Context, key string, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key, m.now())
	if entry == nil || entry.members != nil || !bytes.Equal(entry.value, value) {
		return false, nil
	}
	delete(m.entries, key)
	return true, nil
}

func (m *MemoryBackend) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key, m.now())
	if entry == nil {
		return nil
	}
	if ttl <= 0 {
		delete(m.entries, key)
		return nil
	}
	entry.expiresAt = m.deadline(ttl)
	return nil
}

func (m *MemoryBackend) SAdd(_ context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key, m.now())
	if entry == nil || entry.members == nil {
		entry = &memoryEntry{members: make(map[string]struct{}, len(members))}
		m.entries[key] = entry
	}
	for _, member := range members {
		entry.members[member] = struct{}{}
	}
	return nil
}

func (m *MemoryBackend) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key, m.now())
	if entry == nil || entry.members == nil {
		return nil
	}
	for _, member := range members {
		delete(entry.members, member)
	}
	if len(entry.members) == 0 {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryBackend) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key, m.now())
	if entry == nil || entry.members == nil {
		return []string{}, nil
	}
	out := make([]string, 0, len(entry.members))
	for member := range entry.members {
		out = append(out, member)
	}
	slices.Sort(out)
	return out, nil
}

// Scan matches keys with path.Match, which agrees with Redis glob syntax for
// the ':'-separated keys used by goSession. Keys are visited in sorted order.
func (m *MemoryBackend) Scan(ctx context.Context, pattern string, fn func(key string) error) error {
	m.mu.Lock()
	now := m.now()
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		if m.live(key, now) == nil {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	m.mu.Unlock()

	slices.Sort(keys)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryBackend) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len reports the number of live keys.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for key := range m.entries {
		if m.live(key, now) != nil {
			n++
		}
	}
	return n
}
