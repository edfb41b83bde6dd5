package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/cache"
)

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session record not found")

// Store persists session records under partitioned keys.
//
// Store performs no logical expiry checks; the physical TTL is the cache's job
// and the logical one is the engine's.
//
//	Docs: docs/session.md
type Store struct {
	backend cache.Backend
	keys    Keyspace
}

// NewStore creates a record [Store] on backend using keys for key layout.
func NewStore(backend cache.Backend, keys Keyspace) *Store {
	return &Store{backend: backend, keys: keys}
}

// Save writes sess with the given TTL, replacing any previous record.
//
//	Performance: 1 SET.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.keys.SessionKey(sess.SessionID), data, ttl)
}

// Replace overwrites an existing record and reports whether one was there.
// A record deleted since it was read stays deleted.
//
//	Performance: 1 SET XX.
func (s *Store) Replace(ctx context.Context, sess *Session, ttl time.Duration) (bool, error) {
	data, err := Encode(sess)
	if err != nil {
		return false, err
	}
	return s.backend.SetXX(ctx, s.keys.SessionKey(sess.SessionID), data, ttl)
}

// Get loads one record. A miss yields [ErrNotFound]; an undecodable record
// yields [ErrCorruptRecord].
//
//	Performance: 1 GET.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.backend.Get(ctx, s.keys.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	sess.SessionID = sessionID
	return sess, nil
}

// GetMany loads several records in one batch. Missing and corrupt records are
// left out; the order of ids is preserved for the records returned.
func (s *Store) GetMany(ctx context.Context, sessionIDs []string) ([]*Session, error) {
	if len(sessionIDs) == 0 {
		return []*Session{}, nil
	}

	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = s.keys.SessionKey(id)
	}

	raw, err := s.backend.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]*Session, 0, len(sessionIDs))
	for i, data := range raw {
		if data == nil {
			continue
		}
		sess, decErr := Decode(data)
		if decErr != nil {
			continue
		}
		sess.SessionID = sessionIDs[i]
		out = append(out, sess)
	}
	return out, nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.backend.Delete(ctx, s.keys.SessionKey(sessionID))
}

// ScanSessionIDs enumerates the ids of every stored record across all
// partitions. This is O(keyspace) and belongs in background jobs only.
func (s *Store) ScanSessionIDs(ctx context.Context, fn func(sessionID string) error) error {
	return s.backend.Scan(ctx, s.keys.SessionPattern(), func(key string) error {
		id, ok := s.keys.SessionIDFromKey(key)
		if !ok {
			return nil
		}
		return fn(id)
	})
}

// Ping returns a point-in-time backend availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := s.backend.Ping(ctx)
	return time.Since(start), err
}
