package session

import "strings"

const (
	NamespaceSession     = "session"
	NamespaceUserIndex   = "user_sessions"
	NamespaceTenantIndex = "tenant_sessions"
	NamespaceBlacklist   = "blacklist"
	NamespaceLock        = "session_lock"
	NamespaceMeta        = "session_meta"
)

// Keyspace builds every cache key used by goSession.
//
// With an empty root the keys are "{namespace}:{partition}:{id}". A non-empty
// root is prepended as "{root}:{namespace}:..." so several deployments can
// share one cache.
type Keyspace struct {
	root        string
	partitioner Partitioner
}

// NewKeyspace returns a keyspace sharded by partitioner.
func NewKeyspace(root string, partitioner Partitioner) Keyspace {
	return Keyspace{root: strings.TrimSuffix(root, ":"), partitioner: partitioner}
}

func (k Keyspace) Partitioner() Partitioner { return k.partitioner }

func (k Keyspace) namespace(ns string) string {
	if k.root == "" {
		return ns
	}
	return k.root + ":" + ns
}

func (k Keyspace) SessionKey(sessionID string) string {
	return k.partitioner.Key(k.namespace(NamespaceSession), sessionID)
}

func (k Keyspace) UserIndexKey(userID string) string {
	return k.partitioner.Key(k.namespace(NamespaceUserIndex), userID)
}

func (k Keyspace) TenantIndexKey(tenantID string) string {
	return k.partitioner.Key(k.namespace(NamespaceTenantIndex), tenantID)
}

func (k Keyspace) BlacklistKey(sessionID string) string {
	return k.partitioner.Key(k.namespace(NamespaceBlacklist), sessionID)
}

func (k Keyspace) LockKey(userID string) string {
	return k.partitioner.Key(k.namespace(NamespaceLock), userID)
}

// MetaKey is not partitioned: deployment metadata must be found without
// knowing the partition count.
func (k Keyspace) MetaKey(name string) string {
	return k.namespace(NamespaceMeta) + ":" + name
}

// SessionPattern matches every session record key.
func (k Keyspace) SessionPattern() string {
	return k.namespace(NamespaceSession) + ":*"
}

// SessionIDFromKey extracts the session id from a record key.
func (k Keyspace) SessionIDFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, k.namespace(NamespaceSession)+":")
	if !ok {
		return "", false
	}
	_, id, ok := strings.Cut(rest, ":")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
