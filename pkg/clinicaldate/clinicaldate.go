// Package clinicaldate holds the calendar arithmetic used when comparing
// patient demographics and encounter timestamps.
package clinicaldate

import "time"

// DateLayout is the wire format for date-only values.
const DateLayout = "2006-01-02"

// WholeYears returns the number of complete calendar years between the
// calendar dates of from and to, each read in its own location. A birthday
// not yet reached in the final year is not counted. The result is never
// negative.
func WholeYears(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()

	years := ty - fy
	if tm < fm || (tm == fm && td < fd) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date. b is
// converted to a's location first.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b.In(a.Location())))
}

// Parse accepts either an RFC3339 timestamp or a YYYY-MM-DD date. Date-only
// values are interpreted in loc.
func Parse(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(DateLayout, value, loc)
}
