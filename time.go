package delphi

import (
	"encoding/json"
	"time"

	"github.com/iov-one/delphi/errors"
)

// UnixTime is a moment in POSIX seconds. Every deadline of the chain, like
// a whitelist deadline, a release time or a poll stage, is a UnixTime.
type UnixTime int64

// AsUnixTime truncates t to the second.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// Time is the UTC time of t.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

func (t UnixTime) IsZero() bool {
	return t == 0
}

// Add works like time.Time.Add, dropping what is below a second.
func (t UnixTime) Add(d time.Duration) UnixTime {
	return t + UnixTime(d/time.Second)
}

// Validate fails for times before the epoch.
func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrState, "negative value")
	}
	return nil
}

// String is the RFC 3339 form of t.
func (t UnixTime) String() string {
	return t.Time().Format(time.RFC3339)
}

// UnmarshalJSON reads a number of seconds or, which reads better in a
// genesis file, an RFC 3339 string.
func (t *UnixTime) UnmarshalJSON(raw []byte) error {
	var secs int64
	if err := json.Unmarshal(raw, &secs); err != nil {
		var std time.Time
		if err := json.Unmarshal(raw, &std); err != nil {
			return errors.Wrap(errors.ErrInput, "invalid time format")
		}
		secs = std.Unix()
	}
	if secs < 0 {
		return errors.Wrap(errors.ErrInput, "time before epoch")
	}
	*t = UnixTime(secs)
	return nil
}
