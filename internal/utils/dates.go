// Package utils holds small helpers shared across modules.
package utils

import (
	"fmt"
	"time"
)

// DateLayout is the storage and wire format for calendar days.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day at UTC midnight.
// The calendar day of t is taken in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day
func Today() time.Time {
	return Day(time.Now())
}

// FormatDate renders a calendar day as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD into a UTC calendar day
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a calendar day by n days
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween counts calendar days from a to b (b - a). Negative if b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// EachDay returns every calendar day in [start, end] inclusive.
// Empty when end is before start.
func EachDay(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}

	days := make([]time.Time, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
