package services

import "time"

const secondsPerDay = 24 * 60 * 60

// calendarDay maps t to a day number using the calendar date in t's own location.
func calendarDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// DaysBetween returns the number of calendar days from a to b (negative if b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(calendarDay(b) - calendarDay(a))
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return calendarDay(a) == calendarDay(b)
}

// IsProximate reports whether a and b are at most toleranceDays calendar days apart.
func IsProximate(a, b time.Time, toleranceDays int) bool {
	if toleranceDays < 0 {
		return false
	}
	return absDays(DaysBetween(a, b)) <= toleranceDays
}

func absDays(d int) int {
	if d < 0 {
		return -d
	}
	return d
}
