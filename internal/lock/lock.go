package lock

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/cespare/xxhash/v2"
)

// ErrLockTimeout is returned when a lease could not be obtained within the
// configured wait.
var ErrLockTimeout = errors.New("lock wait timed out")

const releaseTimeout = time.Second

// Locker serialises work per key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LeaseBackend is the subset of the cache used for leases.
type LeaseBackend interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	DeleteIfEquals(ctx context.Context, key string, value []byte) (bool, error)
}

// LeaseConfig tunes a [LeaseLocker].
type LeaseConfig struct {
	// Lease bounds how long a crashed holder can block others.
	Lease time.Duration
	// Wait bounds how long Lock polls before giving up.
	Wait time.Duration
	// RetryInterval is the polling period while the lease is held elsewhere.
	RetryInterval time.Duration
}

// LeaseLocker is a cross-process lock built on SET NX PX plus a
// compare-and-delete release, so only the owner token can release it.
type LeaseLocker struct {
	backend LeaseBackend
	keyFn   func(string) string
	config  LeaseConfig
}

// NewLeaseLocker creates a [LeaseLocker]; keyFn maps a logical key (a user id)
// to the cache key holding the lease.
func NewLeaseLocker(backend LeaseBackend, keyFn func(string) string, cfg LeaseConfig) *LeaseLocker {
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 10 * time.Millisecond
	}
	if keyFn == nil {
		keyFn = func(k string) string { return k }
	}
	return &LeaseLocker{backend: backend, keyFn: keyFn, config: cfg}
}

func (l *LeaseLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := internal.NewLockToken()
	if err != nil {
		return nil, err
	}
	owner := []byte(token)
	leaseKey := l.keyFn(key)
	deadline := time.Now().Add(l.config.Wait)

	for {
		ok, err := l.backend.SetNX(ctx, leaseKey, owner, l.config.Lease)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
				defer cancel()
				_, _ = l.backend.DeleteIfEquals(releaseCtx, leaseKey, owner)
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockTimeout
		}

		timer := time.NewTimer(l.config.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// StripedLocker is an in-process [Locker]. Keys hash onto a fixed set of
// stripes, so unrelated keys may occasionally wait on each other.
type StripedLocker struct {
	stripes []chan struct{}
}

func NewStripedLocker(stripes int) *StripedLocker {
	stripes = max(stripes, 1)
	l := &StripedLocker{stripes: make([]chan struct{}, stripes)}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *StripedLocker) Lock(ctx context.Context, key string) (func(), error) {
	stripe := l.stripes[xxhash.Sum64String(key)%uint64(len(l.stripes))]
	select {
	case stripe <- struct{}{}:
		return func() { <-stripe }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
