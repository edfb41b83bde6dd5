// Package lock serialises the limit-then-create sequence per user.
//
// [LeaseLocker] coordinates several processes through the cache; [StripedLocker]
// covers a single process. Neither is reentrant.
package lock
