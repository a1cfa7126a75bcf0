package utils

import "time"

// Clock returns the current time. Stores take one so tests can pin timestamps.
type Clock func() time.Time

// SystemClock returns the current UTC time
func SystemClock() time.Time {
	return time.Now().UTC()
}

// ParseRFC3339 parses a time string in RFC3339 format, with or without fractional seconds
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
