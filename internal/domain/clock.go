package domain

import (
	"cmp"
	"regexp"
	"slices"
	"time"
)

// clockPattern matches a zero-padded 24-hour "HH:MM" between 00:00 and 23:59.
var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// clockLayout is the time.Format layout for departure times.
const clockLayout = "15:04"

// ValidClock reports whether s is a canonical "HH:MM" departure time.
// "9:05", "25:00" and "12:20A" are all rejected.
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ClockOf formats t as "HH:MM" in t's own location.
func ClockOf(t time.Time) string {
	return t.Format(clockLayout)
}

// UpcomingDepartures returns at most limit departures of the given day type
// leaving at or after clock, earliest first.
//
// Zero-padded "HH:MM" strings order the same lexically and chronologically,
// so plain string comparison is used. The schedule is evaluated for one
// calendar day only: when fewer than limit departures remain, fewer are
// returned and nothing wraps to the next morning.
func UpcomingDepartures(deps []Departure, clock string, dayType DayType, limit int) []Departure {
	if limit <= 0 {
		return []Departure{}
	}
	out := make([]Departure, 0, limit)
	for _, d := range deps {
		if d.DayType.OrDefault() != dayType {
			continue
		}
		if d.Time < clock {
			continue
		}
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(a, b Departure) int {
		return cmp.Compare(a.Time, b.Time)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
