package goSession

import "context"

// LocationChangeDetector is the geolocation hook of the security monitor. It
// reports whether s moved implausibly fast relative to the other live
// sessions of the same user.
//
// goSession ships no geolocation provider; without a detector the
// "rapid location change" heuristic never fires.
type LocationChangeDetector interface {
	LocationChanged(ctx context.Context, s *Session, owned []*Session) (bool, error)
}

// LocationChangeDetectorFunc adapts a function to [LocationChangeDetector].
type LocationChangeDetectorFunc func(ctx context.Context, s *Session, owned []*Session) (bool, error)

func (f LocationChangeDetectorFunc) LocationChanged(ctx context.Context, s *Session, owned []*Session) (bool, error) {
	return f(ctx, s, owned)
}

type noLocationSignal struct{}

func (noLocationSignal) LocationChanged(context.Context, *Session, []*Session) (bool, error) {
	return false, nil
}
