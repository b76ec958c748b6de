package domain

import (
	"fmt"
	"strings"
	"time"
)

// timeLayout pins cache timestamps to UTC with microsecond precision so
// re-serializing an unchanged cache is byte-identical.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Time is a cache timestamp. It marshals as RFC 3339 UTC with exactly six
// fractional digits and accepts any RFC 3339 form on load, including the
// +00:00 offset written by earlier pipeline versions.
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	return Time{t.UTC().Truncate(time.Microsecond)}
}

func Now() Time {
	return NewTime(time.Now())
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(timeLayout) + `"`), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}
