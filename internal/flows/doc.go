// Package flows contains pure-function orchestrators for the Engine's
// multi-step operations: limit enforcement, bulk revocation, suspicious-session
// scanning, expired-session sweeping, statistics, and introspection.
//
// Each flow function accepts a typed dependency struct of function values and
// returns results without side-effects beyond those dependencies. Flows read
// sessions through the Engine's own lookup and invalidation paths, so the
// Engine stays the single source of truth for expiry and blacklist rules.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Touch the cache directly; all I/O is mediated through dependency functions.
package flows
