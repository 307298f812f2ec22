package models

import "time"

const DateLayout = "2006-01-02"

// Day truncates t to its calendar date in t's location and returns it as
// midnight UTC, the form dates are stored and compared in.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
