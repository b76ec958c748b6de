package util

import "time"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseISO accepts the timestamp shapes ATS APIs emit: RFC 3339 with or
// without fractional seconds, zoneless ISO (treated as UTC), bare dates.
func ParseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimestampUTC is the posted_on wire format for machine timestamps: UTC,
// second precision, Z suffix.
func TimestampUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// ISOToUTC normalizes an ISO-ish timestamp string, or returns "" when it
// cannot be parsed.
func ISOToUTC(s string) string {
	if s == "" {
		return ""
	}
	t, ok := ParseISO(s)
	if !ok {
		return ""
	}
	return TimestampUTC(t)
}
