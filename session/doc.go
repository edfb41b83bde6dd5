// Package session owns the cache-resident state of goSession: session records,
// the per-user and per-tenant index sets, and the blacklist of invalidated ids.
//
// # Key layout
//
// Every key is "{namespace}:{partition}:{id}" where partition is
// xxhash64(id) mod N (see [Partitioner]). N is pinned in the cache by
// [EnsurePartitionScheme].
//
// # Architecture boundaries
//
// The stores here are plain persistence. Logical expiry, blacklist precedence,
// limit enforcement, and audit are decided by the Engine.
//
// # What this package must NOT do
//
//   - Import goSession (no upward imports).
//   - Treat index membership as proof that a session exists.
package session
