package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is the leading byte written in front of every record.
const CurrentSchemaVersion uint8 = 1

// ErrCorruptRecord is returned when a stored record cannot be decoded.
var ErrCorruptRecord = errors.New("session record corrupt")

// Encode serialises s as one version byte followed by a JSON body.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+1)
	out = append(out, CurrentSchemaVersion)
	out = append(out, body...)
	return out, nil
}

// Decode parses a record written by [Encode]. Unknown versions are rejected
// rather than guessed at.
func Decode(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrCorruptRecord)
	}

	version := data[0]
	if version != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported session schema version %d", ErrCorruptRecord, version)
	}

	var s Session
	if err := json.Unmarshal(data[1:], &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if s.SessionID == "" || s.UserID == "" {
		return nil, fmt.Errorf("%w: missing identifiers", ErrCorruptRecord)
	}
	s.SchemaVersion = version
	return &s, nil
}
