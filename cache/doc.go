// Package cache is the key-value boundary of goSession.
//
// # Components
//
//   - [Backend]: the operation set the session stores rely on (scalar values with
//     per-key TTL, string sets, pattern enumeration, compare-and-delete).
//   - [RedisBackend]: go-redis implementation for single node, sentinel, and cluster
//     deployments.
//   - [MemoryBackend]: in-process implementation for single-instance deployments and tests.
//   - [Connect]: env-configured Redis bootstrap with bounded retries.
//
// # Architecture boundaries
//
// This package knows nothing about sessions. Key layout, partitioning, and record
// encoding belong to the session package.
package cache
