package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/session"
)

var (
	// ErrStorageFailure wraps every cache backend failure surfaced by a write path.
	ErrStorageFailure = errors.New("session storage failure")
	// ErrSessionNotFound is the normal negative result for absent, expired or
	// blacklisted sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrValidation is returned when a required input such as the user id is missing.
	ErrValidation = errors.New("invalid session request")
	// ErrEngineNotReady is returned by operations on a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrPartitionSchemeMismatch is returned by Start when the cache was
	// written with a different partition count.
	ErrPartitionSchemeMismatch = session.ErrPartitionSchemeMismatch
	// ErrSchedulerRunning is returned by a second Start.
	ErrSchedulerRunning = errors.New("scheduler already running")
)
