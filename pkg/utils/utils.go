package utils

import "time"

// InstantKey maps a time to the integer key used when matching dates across a round trip
// through storage. PostgreSQL keeps microseconds, so anything finer is dropped.
func InstantKey(t time.Time) int64 {
	return t.UnixMicro()
}

// SameInstant compares two times by instant at storage precision, ignoring location.
func SameInstant(a, b time.Time) bool {
	return InstantKey(a) == InstantKey(b)
}

// IsDateOverdue checks if a due date has passed relative to now
func IsDateOverdue(dueDate time.Time, now time.Time) bool {
	return now.After(dueDate)
}

// EarliestDate returns the earliest non-zero date, or the zero time when none is set.
func EarliestDate(dates ...time.Time) time.Time {
	var earliest time.Time
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
	}
	return earliest
}

// ParseDate accepts either a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
