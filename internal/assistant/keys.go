package assistant

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// TimestampKeyLayout formats timestamp session keys. Two uploads within the
// same second share a key and the later one replaces the earlier.
const TimestampKeyLayout = "20060102_150405"

// KeyGenerator produces a session key for an upload at the given time.
type KeyGenerator func(now time.Time) string

// TimestampKeys returns keys derived from the upload time.
func TimestampKeys() KeyGenerator {
	return func(now time.Time) string {
		return now.Format(TimestampKeyLayout)
	}
}

// UUIDKeys returns random v4 keys.
func UUIDKeys() KeyGenerator {
	return func(time.Time) string {
		return uuid.NewString()
	}
}

// KeysFor resolves a key strategy name ("timestamp" or "uuid").
func KeysFor(strategy string) (KeyGenerator, error) {
	switch strategy {
	case "", "timestamp":
		return TimestampKeys(), nil
	case "uuid":
		return UUIDKeys(), nil
	default:
		return nil, eris.Errorf("assistant: unknown session key strategy %q", strategy)
	}
}
