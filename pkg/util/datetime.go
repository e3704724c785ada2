package util

import "time"

const ISO8601Format = "2006-01-02T15:04:05.000Z"

// TimeToISO8601Str formats t in UTC with millisecond precision.
func TimeToISO8601Str(t time.Time) string {
	return t.UTC().Format(ISO8601Format)
}

// TimePtrToISO8601Str returns "" for a nil time.
func TimePtrToISO8601Str(t *time.Time) string {
	if t == nil {
		return ""
	}
	return TimeToISO8601Str(*t)
}

func ParseISO8601(s string) (time.Time, error) {
	return time.Parse(ISO8601Format, s)
}
