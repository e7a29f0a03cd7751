// Package timeutil keeps persisted, signed and reported timestamps in UTC.
package timeutil

import "time"

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// AddDays moves t by whole calendar days, in UTC
func AddDays(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, days)
}

// Stamp formats t as RFC 3339 in UTC
func Stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
