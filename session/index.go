package session

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/cache"
)

// Index maintains the per-user and per-tenant sets of session ids.
//
// The sets are an eventually consistent view: an id may outlive its record
// until the next read or sweep removes it. Callers must re-check the record.
type Index struct {
	backend cache.Backend
	keys    Keyspace
}

func NewIndex(backend cache.Backend, keys Keyspace) *Index {
	return &Index{backend: backend, keys: keys}
}

// AddUserSession adds sessionID to the user's set and refreshes the set TTL.
func (x *Index) AddUserSession(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	return x.add(ctx, x.keys.UserIndexKey(userID), sessionID, ttl)
}

func (x *Index) RemoveUserSessions(ctx context.Context, userID string, sessionIDs ...string) error {
	return x.backend.SRem(ctx, x.keys.UserIndexKey(userID), sessionIDs...)
}

func (x *Index) UserSessionIDs(ctx context.Context, userID string) ([]string, error) {
	return x.backend.SMembers(ctx, x.keys.UserIndexKey(userID))
}

// AddTenantSession adds sessionID to the tenant's set and refreshes the set TTL.
func (x *Index) AddTenantSession(ctx context.Context, tenantID, sessionID string, ttl time.Duration) error {
	return x.add(ctx, x.keys.TenantIndexKey(tenantID), sessionID, ttl)
}

func (x *Index) RemoveTenantSessions(ctx context.Context, tenantID string, sessionIDs ...string) error {
	return x.backend.SRem(ctx, x.keys.TenantIndexKey(tenantID), sessionIDs...)
}

func (x *Index) TenantSessionIDs(ctx context.Context, tenantID string) ([]string, error) {
	return x.backend.SMembers(ctx, x.keys.TenantIndexKey(tenantID))
}

func (x *Index) add(ctx context.Context, key, sessionID string, ttl time.Duration) error {
	if err := x.backend.SAdd(ctx, key, sessionID); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	return x.backend.Expire(ctx, key, ttl)
}
