package manifest

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the wall-clock format used throughout the manifest:
// UTC, whole seconds, trailing literal Z.
const TimeLayout = "2006-01-02T15:04:05Z"

// Timestamp is a manifest instant. It always holds a UTC time truncated
// to whole seconds, so a value survives a round trip through the manifest
// file without losing precision.
type Timestamp struct {
	t time.Time
}

// At converts an arbitrary time into a Timestamp, normalizing to UTC and
// dropping sub-second precision.
func At(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Truncate(time.Second)}
}

// Parse reads a Timestamp from its manifest representation.
func Parse(s string) (Timestamp, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return Timestamp{t: t}, nil
}

// Time returns the underlying UTC time.
func (ts Timestamp) Time() time.Time { return ts.t }

// IsZero reports whether the timestamp is the zero value.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Equal reports whether two timestamps denote the same second.
func (ts Timestamp) Equal(other Timestamp) bool { return ts.t.Equal(other.t) }

// After reports whether ts is strictly later than other.
func (ts Timestamp) After(other Timestamp) bool { return ts.t.After(other.t) }

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// String returns the manifest representation, e.g. "2024-01-15T10:30:00Z".
func (ts Timestamp) String() string {
	return ts.t.UTC().Format(TimeLayout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
