package internal

import (
	"crypto/rand"
	"encoding/base64"
)

const (
	// SessionIDBytes is the entropy behind every session id (256 bits).
	SessionIDBytes = 32
	lockTokenBytes = 16
)

// NewSessionID returns an opaque, unguessable session id. The base64url
// alphabet never contains ':', so ids are safe inside partitioned keys.
func NewSessionID() (string, error) {
	return randomToken(SessionIDBytes)
}

// NewLockToken returns a random owner token for cache leases.
func NewLockToken() (string, error) {
	return randomToken(lockTokenBytes)
}

func randomToken(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
