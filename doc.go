// Package goSession provides a multi-tenant session lifecycle manager on top of a
// distributed key-value cache. It issues, extends and revokes opaque session ids,
// caps live sessions per user, and scans for suspicious sessions in the background.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (Session, Statistics, SuspiciousReport, MetricsSnapshot). Persistence lives in the session
// and cache packages; flow orchestration, locking, heuristics and audit dispatch live under
// internal/ and are never exported.
//
// # Consistency model
//
// Record, index and blacklist writes are ordered but not transactional. Invalidation writes
// the blacklist first, so a partial failure can leave a stale index entry but never a usable
// id. Reads always re-check the record, the blacklist and the expiry.
//
// # What this package must NOT do
//
//   - Verify credentials, make authorization decisions, or carry session ids over a transport.
//   - Perform I/O in Builder.Build; the partition scheme check and the scheduler run in Start.
//   - Import any sub-package that re-imports goSession (no import cycles).
//
// # Error model
//
// Write paths (CreateSession, TouchSession, InvalidateSession, RevokeAllSessions) return
// backend failures wrapped in [ErrStorageFailure]. Read paths (GetSession, ListUserSessions,
// GetStatistics) log backend failures and degrade to a not-found or empty result.
package goSession
