package session

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/cache"
)

var blacklistMarker = []byte("1")

// Blacklist is the denylist of invalidated session ids. Entries live exactly
// as long as the session could otherwise still have been presented.
type Blacklist struct {
	backend cache.Backend
	keys    Keyspace
}

func NewBlacklist(backend cache.Backend, keys Keyspace) *Blacklist {
	return &Blacklist{backend: backend, keys: keys}
}

// Add denylists sessionID for ttl. A non-positive ttl is a no-op because the
// session could no longer be accepted anyway.
func (b *Blacklist) Add(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.backend.Set(ctx, b.keys.BlacklistKey(sessionID), blacklistMarker, ttl)
}

// Denylisted returns the subset of sessionIDs that are currently denylisted.
//
//	Performance: 1 pipelined GET per backend node.
func (b *Blacklist) Denylisted(ctx context.Context, sessionIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(sessionIDs) == 0 {
		return out, nil
	}
	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = b.keys.BlacklistKey(id)
	}
	raw, err := b.backend.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		if v != nil {
			out[sessionIDs[i]] = true
		}
	}
	return out, nil
}

// Contains reports whether sessionID is currently denylisted.
func (b *Blacklist) Contains(ctx context.Context, sessionID string) (bool, error) {
	_, err := b.backend.Get(ctx, b.keys.BlacklistKey(sessionID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	return false, err
}
