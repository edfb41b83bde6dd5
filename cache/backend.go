package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMiss is returned when a scalar key does not exist or has expired.
	ErrMiss = errors.New("cache miss")
	// ErrUnavailable wraps transport and server failures reported by a backend.
	ErrUnavailable = errors.New("cache unavailable")
)

// Backend is the minimal key-value contract consumed by the session stores.
//
// Implementations must be safe for concurrent use. Failures other than
// [ErrMiss] should wrap [ErrUnavailable].
type Backend interface {
	// Get returns the value stored at key or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMany returns one slot per key; missing keys yield a nil slot.
	GetMany(ctx context.Context, keys []string) ([][]byte, error)
	// Set stores value with ttl. A ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// SetXX overwrites value only when key already exists and reports whether it did.
	SetXX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	// DeleteIfEquals removes key only while it still holds value.
	DeleteIfEquals(ctx context.Context, key string, value []byte) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	// Scan calls fn once per key matching the glob pattern. Enumeration stops
	// at the first error returned by fn.
	Scan(ctx context.Context, pattern string, fn func(key string) error) error
	Ping(ctx context.Context) error
}
