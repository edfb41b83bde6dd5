// Package internal contains helpers that are private to goSession: session id
// generation and client fingerprint normalisation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestration for limiter, revocation, monitoring, sweeping, statistics
//   - lock: per-user serialisation (cache leases or in-process striped mutexes)
//   - security: suspicious-session heuristics and the configuration posture report
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
